package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/giftgate/internal/config"
	"github.com/MrSnakeDoc/giftgate/internal/domain"
	"github.com/MrSnakeDoc/giftgate/internal/fetcher"
	"github.com/MrSnakeDoc/giftgate/internal/httpserver"
	"github.com/MrSnakeDoc/giftgate/internal/httpserver/deps"
	"github.com/MrSnakeDoc/giftgate/internal/identity"
	"github.com/MrSnakeDoc/giftgate/internal/index"
	"github.com/MrSnakeDoc/giftgate/internal/logger"
	"github.com/MrSnakeDoc/giftgate/internal/redis"
	"github.com/MrSnakeDoc/giftgate/internal/scheduler"
	"github.com/MrSnakeDoc/giftgate/internal/sources/fragment"
	redisstore "github.com/MrSnakeDoc/giftgate/internal/store/redis"
	"github.com/MrSnakeDoc/giftgate/internal/utils"
	"github.com/MrSnakeDoc/giftgate/internal/verify"
	"github.com/MrSnakeDoc/giftgate/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	identity    *identity.Client
	redisClient *goredis.Client
	syncer      *scheduler.GiftSyncer
}

func New() (*App, error) {
	cfg := config.MustLoad()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	profile, err := fragment.NewProfileLoader(cfg.ProfileFile).Load()
	if err != nil {
		return nil, err
	}

	// Optional Redis mirror - the service runs on the memory cache alone without it
	var (
		redisClient *goredis.Client
		store       *redisstore.Store
		mirror      index.GiftMirror
		syncer      *scheduler.GiftSyncer
	)
	if cfg.RedisEnabled() {
		redisClient, err = redis.Connect(context.Background(), redis.OptionsFromConfig(cfg), loggerClient.Named("redis"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		store = redisstore.NewStore(redisClient)
		mirror = store
	} else {
		loggerClient.Info("redis not configured, gift metadata cached in memory only")
	}

	gifts := index.NewGiftIndex(func(markup, slug string) (*domain.Gift, error) {
		return fragment.ParseGift(markup, slug, profile)
	}, mirror, loggerClient.Named("gifts"))
	if store != nil {
		syncer = scheduler.NewGiftSyncer(store, gifts, loggerClient)
	}

	pages := fetcher.New(fetcher.Options{
		Timeout:   cfg.FetchTimeout,
		UserAgent: cfg.UserAgent,
	}, loggerClient.Named("fetcher"))

	idClient, err := identity.New(identity.Options{
		APIID:        cfg.APIID,
		APIHash:      cfg.APIHash,
		BotToken:     cfg.BotToken,
		SessionFile:  cfg.SessionFile,
		StartTimeout: cfg.IdentityTimeout,
	}, loggerClient.Named("identity"))
	if err != nil {
		utils.CloseLogged(closerOrNil(redisClient), "redis", loggerClient)
		return nil, err
	}

	owners := verify.NewOwnerResolver(pages, idClient, profile)
	verifier := verify.NewVerifier(gifts, pages, owners, cfg.GiftHosts, loggerClient.Named("verify"))

	// Dependencies passed to routes
	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		CORSOrigins:  cfg.CORSOrigins,
		StaticDir:    cfg.StaticDir,
		Verifier:     verifier,
		Gifts:        gifts,
		Ledger:       index.NewLedger(),
		Identity:     idClient,
	}
	if store != nil {
		d.Redis = store
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		identity:    idClient,
		redisClient: redisClient,
		syncer:      syncer,
	}, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting %s on %s", version.String(), a.cfg.ListenAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Warm the gift cache from the mirror before serving
	if a.syncer != nil {
		if err := a.syncer.Sync(ctx); err != nil {
			a.logger.Warn("gift sync from redis on startup was incomplete",
				logger.Error(err))
		}
	}

	// The identity session must be up before any ownership check can succeed
	if err := a.identity.Start(ctx); err != nil {
		a.closeRedis()
		return fmt.Errorf("failed to start identity client: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	utils.CloseLogged(a.identity, "identity", a.logger)
	a.closeRedis()

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ giftgate stopped cleanly")
	return nil
}

func (a *App) closeRedis() {
	utils.CloseLogged(closerOrNil(a.redisClient), "redis", a.logger)
}

// closerOrNil keeps a nil *redis.Client from becoming a non-nil io.Closer.
func closerOrNil(c *goredis.Client) io.Closer {
	if c == nil {
		return nil
	}
	return c
}
