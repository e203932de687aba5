package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/giftgate/internal/domain"
	"github.com/MrSnakeDoc/giftgate/internal/index"
	"github.com/MrSnakeDoc/giftgate/internal/logger"
)

// Verifier decides whether a claim of ownership holds.
type Verifier interface {
	Verify(ctx context.Context, claim domain.OwnershipClaim) (*domain.Gift, error)
}

// ReadyChecker reports whether a long-lived client is usable.
type ReadyChecker interface {
	Ready() bool
}

// Pinger checks a backing store connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedCIDRS []string         // IPs allowed to access readyz/metrics endpoints
	TrustProxy   bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	CORSOrigins  []string         // origins allowed to call /api from the browser
	StaticDir    string           // mini-app assets served at /, empty = disabled

	Verifier Verifier         // ownership verification pipeline
	Gifts    *index.GiftIndex // resolved gift metadata
	Ledger   *index.Ledger    // active marketplace listings
	Identity ReadyChecker     // identity lookup client
	Redis    Pinger           // gift metadata mirror, nil when disabled
}
