package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gotd/td/constant"
	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"

	"github.com/MrSnakeDoc/giftgate/internal/domain"
	"github.com/MrSnakeDoc/giftgate/internal/logger"
	"github.com/MrSnakeDoc/giftgate/internal/metrics"
)

// Options holds the bot credentials used to open the MTProto session.
type Options struct {
	APIID       int
	APIHash     string
	BotToken    string
	SessionFile string // empty keeps the session in memory

	// StartTimeout bounds connect and login in Start. Zero means no bound.
	StartTimeout time.Duration
}

func (o Options) validate() error {
	var errs []error
	if o.APIID <= 0 {
		errs = append(errs, fmt.Errorf("api id must be > 0, got %d", o.APIID))
	}
	if o.APIHash == "" {
		errs = append(errs, errors.New("api hash is required"))
	}
	if o.BotToken == "" {
		errs = append(errs, errors.New("bot token is required"))
	}
	return errors.Join(errs...)
}

// resolver is the subset of the Telegram API used for lookups.
type resolver interface {
	ContactsResolveUsername(ctx context.Context, username string) (*tg.ContactsResolvedPeer, error)
}

// Client resolves public handles to numeric account ids over a single
// long-lived bot session. It must be started before use and closed on
// shutdown.
type Client struct {
	opts   Options
	tg     *telegram.Client
	runTG  func(ctx context.Context, f func(ctx context.Context) error) error
	logger logger.Logger

	mu  sync.RWMutex
	api resolver

	ready   chan struct{}
	stopped chan struct{}
	runErr  error
	cancel  context.CancelFunc
}

// New prepares a client. No connection is made until Start.
func New(opts Options, log logger.Logger) (*Client, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid identity options: %w", err)
	}

	var storage telegram.SessionStorage = new(session.StorageMemory)
	if opts.SessionFile != "" {
		storage = &session.FileStorage{Path: opts.SessionFile}
	}

	c := &Client{
		opts:    opts,
		logger:  log,
		ready:   make(chan struct{}),
		stopped: make(chan struct{}),
	}
	c.tg = telegram.NewClient(opts.APIID, opts.APIHash, telegram.Options{
		SessionStorage: storage,
		Logger:         log.Named("mtproto").Zap(),
	})
	c.runTG = c.tg.Run
	return c, nil
}

// Start connects and authenticates as the bot. It returns once the session
// is usable, or with the first connection or login error. An unreachable
// Telegram fails with context.DeadlineExceeded after Options.StartTimeout.
func (c *Client) Start(ctx context.Context) error {
	if c.opts.StartTimeout > 0 {
		var cancelStart context.CancelFunc
		ctx, cancelStart = context.WithTimeout(ctx, c.opts.StartTimeout)
		defer cancelStart()
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	go func() {
		defer close(c.stopped)
		c.runErr = c.runTG(runCtx, c.run)
	}()

	select {
	case <-c.ready:
		c.logger.Info("identity client ready")
		return nil
	case <-c.stopped:
		return fmt.Errorf("identity client stopped during startup: %w", c.runErr)
	case <-ctx.Done():
		cancel()
		<-c.stopped
		return fmt.Errorf("identity client not ready: %w", ctx.Err())
	}
}

func (c *Client) run(ctx context.Context) error {
	status, err := c.tg.Auth().Status(ctx)
	if err != nil {
		return fmt.Errorf("auth status: %w", err)
	}
	if !status.Authorized {
		if _, err := c.tg.Auth().Bot(ctx, c.opts.BotToken); err != nil {
			return fmt.Errorf("bot login: %w", err)
		}
	}

	c.mu.Lock()
	c.api = c.tg.API()
	c.mu.Unlock()
	close(c.ready)

	<-ctx.Done()
	return ctx.Err()
}

// Close disconnects the session and waits for the client to stop.
func (c *Client) Close() error {
	if c.cancel == nil {
		return nil
	}
	c.cancel()
	<-c.stopped

	c.mu.Lock()
	c.api = nil
	c.mu.Unlock()

	if c.runErr != nil && !errors.Is(c.runErr, context.Canceled) {
		return c.runErr
	}
	c.logger.Info("identity client closed")
	return nil
}

// Ready reports whether lookups can be served.
func (c *Client) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.api != nil
}

// LookupID resolves handle to the numeric id of the user, channel or chat
// it names. Any failure is an identity_lookup_failed error.
func (c *Client) LookupID(ctx context.Context, handle string) (int64, error) {
	id, err := c.lookup(ctx, handle)
	metrics.ObserveIdentityLookup(err)
	if err != nil {
		c.logger.Warn("identity lookup failed", logger.String("handle", handle), logger.Error(err))
		return 0, err
	}
	return id, nil
}

func (c *Client) lookup(ctx context.Context, handle string) (int64, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return 0, domain.NewError(domain.KindIdentityLookup, "empty handle")
	}

	c.mu.RLock()
	api := c.api
	c.mu.RUnlock()
	if api == nil {
		return 0, domain.NewError(domain.KindIdentityLookup, "identity client not connected")
	}

	resolved, err := api.ContactsResolveUsername(ctx, handle)
	if err != nil {
		return 0, domain.WrapError(domain.KindIdentityLookup, err, "resolve %q", handle)
	}
	return peerID(resolved.Peer)
}

// peerID returns the Bot API form of the peer id. Users keep their positive
// id; channels and chats get the negative marked form, so they never collide
// with a user id.
func peerID(peer tg.PeerClass) (int64, error) {
	var id constant.TDLibPeerID
	switch p := peer.(type) {
	case *tg.PeerUser:
		id.User(p.UserID)
	case *tg.PeerChannel:
		id.Channel(p.ChannelID)
	case *tg.PeerChat:
		id.Chat(p.ChatID)
	default:
		return 0, domain.NewError(domain.KindIdentityLookup, "unexpected peer type %T", peer)
	}
	return int64(id), nil
}
