package share

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

var ErrShareCreationFailed = errors.New("share creation failed")

const (
	DefaultReuseMinRemaining = 12 * time.Hour
	DefaultDuration          = 7
	DefaultUnit              = "days"
)

type Lister interface {
	List(ctx context.Context, path string) ([]Link, error)
}

type Creator interface {
	Create(ctx context.Context, req CreateRequest) (Link, error)
}

// CreateRequest mirrors the share creation call: an optional password and a
// lifetime of Expires units. Expires == 0 creates a link that never expires.
type CreateRequest struct {
	Path     string
	Password string
	Expires  int
	Unit     string
}

type Config struct {
	// ReuseMinRemaining is how much lifetime an expiring link must still have
	// to be handed out again.
	ReuseMinRemaining time.Duration
	Duration          int
	Unit              string
}

func (c Config) withDefaults() Config {
	if c.ReuseMinRemaining <= 0 {
		c.ReuseMinRemaining = DefaultReuseMinRemaining
	}
	if c.Duration <= 0 {
		c.Duration = DefaultDuration
	}
	if c.Unit == "" {
		c.Unit = DefaultUnit
	}
	return c
}

// Resolver returns a reusable share link for a path, creating one only when
// nothing suitable exists.
type Resolver struct {
	lister  Lister
	creator Creator
	cfg     Config
	now     func() time.Time
}

func NewResolver(lister Lister, creator Creator, cfg Config) *Resolver {
	return &Resolver{
		lister:  lister,
		creator: creator,
		cfg:     cfg.withDefaults(),
		now:     time.Now,
	}
}

func (r *Resolver) Config() Config {
	return r.cfg
}

// IsReusable reports whether link can be handed out at now. Never-expiring
// links always qualify; expiring ones need more than minRemaining left.
func IsReusable(link Link, now time.Time, minRemaining time.Duration) bool {
	if link.Expire == 0 {
		return true
	}
	if link.Expire < 0 {
		return false
	}
	return link.Expire-now.Unix() > int64(minRemaining/time.Second)
}

// Resolve returns the best reusable link for path or creates a new one.
// Listing failures are logged and treated as an empty result; only creation
// failures are returned.
func (r *Resolver) Resolve(ctx context.Context, path string) (Link, error) {
	if link, ok := r.reusable(ctx, path); ok {
		return link, nil
	}

	link, err := r.creator.Create(ctx, CreateRequest{
		Path:    path,
		Expires: r.cfg.Duration,
		Unit:    r.cfg.Unit,
	})
	if err != nil {
		return Link{}, fmt.Errorf("%w: %w", ErrShareCreationFailed, err)
	}
	return link, nil
}

func (r *Resolver) reusable(ctx context.Context, path string) (Link, bool) {
	links, err := r.lister.List(ctx, path)
	if err != nil {
		slog.Warn("share: list failed, creating a new link", "path", path, "error", err)
		return Link{}, false
	}

	now := r.now()
	candidates := make([]Link, 0, len(links))
	for _, link := range links {
		if link.PasswordProtected() || !IsReusable(link, now, r.cfg.ReuseMinRemaining) {
			continue
		}
		candidates = append(candidates, link)
	}
	if len(candidates) == 0 {
		return Link{}, false
	}

	slices.SortFunc(candidates, outlives)
	return candidates[0], true
}

// outlives orders never-expiring links first, then later deadlines first.
func outlives(a, b Link) int {
	switch {
	case a.Expire == b.Expire:
		return 0
	case a.Expire == 0:
		return -1
	case b.Expire == 0:
		return 1
	}
	return cmp.Compare(b.Expire, a.Expire)
}
