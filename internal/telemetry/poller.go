// internal/telemetry/poller.go

// Package telemetry keeps a periodically refreshed snapshot of gateway
// usage and account data. Readers get the last good snapshot; a failed
// refresh records the error without clearing previous values.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/user/aetherchat/internal/gateway"
)

// UsageSource is the subset of the gateway client the poller reads from.
type UsageSource interface {
	FetchUsage(ctx context.Context, query gateway.UsageQuery) (*gateway.UsageSnapshot, error)
	FetchUserInfo(ctx context.Context, userID string) (*gateway.UserInfo, error)
	UsersCount(ctx context.Context) (int, error)
}

// Snapshot is one complete telemetry refresh. Err holds the first error
// encountered during the refresh; fields fetched before the error are
// still populated.
type Snapshot struct {
	Usage       *gateway.UsageSnapshot `json:"usage,omitempty"`
	UserInfo    *gateway.UserInfo      `json:"user_info,omitempty"`
	UsersCount  int                    `json:"users_count"`
	LastUpdated time.Time              `json:"last_updated"`
	Err         error                  `json:"-"`
}

// Options configures a Poller.
type Options struct {
	UserID       string
	AppID        string
	LookbackDays int
	Interval     time.Duration
}

// Poller refreshes telemetry on a fixed schedule.
type Poller struct {
	source UsageSource
	opts   Options
	cron   *cron.Cron

	mu   sync.RWMutex
	snap Snapshot
}

// New creates a Poller. Interval defaults to one minute.
func New(source UsageSource, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	return &Poller{
		source: source,
		opts:   opts,
		cron:   cron.New(),
	}
}

// Start performs an initial refresh and begins the periodic schedule.
func (p *Poller) Start(ctx context.Context) error {
	p.Refresh(ctx)

	_, err := p.cron.AddFunc("@every "+p.opts.Interval.String(), func() {
		p.Refresh(context.Background())
	})
	if err != nil {
		return err
	}
	p.cron.Start()
	slog.Info("telemetry poller started", "interval", p.opts.Interval)
	return nil
}

// Stop halts the periodic schedule.
func (p *Poller) Stop() {
	p.cron.Stop()
}

// Refresh fetches usage, user info, and user count, then publishes a new
// snapshot. Individual fetch failures are logged; the first one is kept
// on the snapshot.
func (p *Poller) Refresh(ctx context.Context) {
	snap := Snapshot{LastUpdated: time.Now().UTC()}

	usage, err := p.source.FetchUsage(ctx, gateway.UsageQuery{
		UserID:       p.opts.UserID,
		AppID:        p.opts.AppID,
		LookbackDays: p.opts.LookbackDays,
	})
	if err != nil {
		slog.Warn("telemetry usage refresh failed", "error", err)
		snap.Err = err
	} else {
		snap.Usage = usage
	}

	info, err := p.source.FetchUserInfo(ctx, p.opts.UserID)
	if err != nil {
		slog.Warn("telemetry user info refresh failed", "error", err)
		if snap.Err == nil {
			snap.Err = err
		}
	} else {
		snap.UserInfo = info
	}

	count, err := p.source.UsersCount(ctx)
	if err != nil {
		slog.Warn("telemetry users count refresh failed", "error", err)
		if snap.Err == nil {
			snap.Err = err
		}
	} else {
		snap.UsersCount = count
	}

	p.mu.Lock()
	p.snap = snap
	p.mu.Unlock()
}

// Snapshot returns the most recent refresh result.
func (p *Poller) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}
