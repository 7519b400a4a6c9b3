package share

import (
	"context"
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeShares struct {
	links     []Link
	listErr   error
	listCalls int

	created    []CreateRequest
	createLink Link
	createErr  error

	getLink Link
	getErr  error
}

func (f *fakeShares) List(_ context.Context, _ string) ([]Link, error) {
	f.listCalls++
	return f.links, f.listErr
}

func (f *fakeShares) Create(_ context.Context, req CreateRequest) (Link, error) {
	f.created = append(f.created, req)
	if f.createErr != nil {
		return Link{}, f.createErr
	}
	link := f.createLink
	link.Path = req.Path
	return link, nil
}

func (f *fakeShares) Get(_ context.Context, _ string) (Link, error) {
	return f.getLink, f.getErr
}

func newTestResolver(shares *fakeShares, cfg Config) *Resolver {
	r := NewResolver(shares, shares, cfg)
	r.now = func() time.Time { return testNow }
	return r
}

func inFuture(d time.Duration) int64 {
	return testNow.Add(d).Unix()
}

func TestResolve_ReusesNeverExpiringLink(t *testing.T) {
	shares := &fakeShares{links: []Link{
		{Hash: "forever", Token: "tok-forever", Expire: 0},
	}}
	r := newTestResolver(shares, Config{})

	link, err := r.Resolve(context.Background(), "/movies/a.mkv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if link.Hash != "forever" || link.Token != "tok-forever" {
		t.Errorf("expected forever/tok-forever, got %s/%s", link.Hash, link.Token)
	}
	if len(shares.created) != 0 {
		t.Errorf("expected no share creation, got %d", len(shares.created))
	}
}

func TestResolve_CreatesWhenAllLinksExpireSoon(t *testing.T) {
	shares := &fakeShares{
		links: []Link{
			{Hash: "soon", Token: "a", Expire: inFuture(time.Hour)},
			{Hash: "edge", Token: "b", Expire: inFuture(DefaultReuseMinRemaining)},
		},
		createLink: Link{Hash: "fresh", Token: "fresh-token"},
	}
	r := newTestResolver(shares, Config{})

	link, err := r.Resolve(context.Background(), "/movies/a.mkv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if link.Hash != "fresh" || link.Token != "fresh-token" {
		t.Errorf("expected newly created link, got %s/%s", link.Hash, link.Token)
	}
	if len(shares.created) != 1 {
		t.Fatalf("expected one share creation, got %d", len(shares.created))
	}
	req := shares.created[0]
	if req.Path != "/movies/a.mkv" || req.Password != "" || req.Expires != 7 || req.Unit != "days" {
		t.Errorf("unexpected create request: %+v", req)
	}
}

func TestResolve_NeverSelectsPasswordProtectedLinks(t *testing.T) {
	shares := &fakeShares{
		links: []Link{
			{Hash: "locked", Token: "a", Expire: 0, PasswordHash: "$2a$10$abc"},
			{Hash: "locked-long", Token: "b", Expire: inFuture(30 * 24 * time.Hour), PasswordHash: "$2a$10$def"},
		},
		createLink: Link{Hash: "fresh", Token: "c"},
	}
	r := newTestResolver(shares, Config{})

	link, err := r.Resolve(context.Background(), "/a.mp3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if link.Hash != "fresh" {
		t.Errorf("expected password-protected links to be skipped, got %s", link.Hash)
	}
}

func TestResolve_PrefersNeverExpiringOverExpiring(t *testing.T) {
	shares := &fakeShares{links: []Link{
		{Hash: "short", Token: "a", Expire: inFuture(1000 * time.Second)},
		{Hash: "long", Token: "b", Expire: inFuture(20000 * time.Second)},
		{Hash: "forever", Token: "c", Expire: 0},
	}}
	r := newTestResolver(shares, Config{ReuseMinRemaining: time.Second})

	link, err := r.Resolve(context.Background(), "/a.mkv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if link.Hash != "forever" {
		t.Errorf("expected never-expiring link, got %s", link.Hash)
	}
}

func TestResolve_PrefersLatestExpiry(t *testing.T) {
	shares := &fakeShares{links: []Link{
		{Hash: "two-days", Token: "a", Expire: inFuture(48 * time.Hour)},
		{Hash: "six-days", Token: "b", Expire: inFuture(144 * time.Hour)},
		{Hash: "one-day", Token: "c", Expire: inFuture(24 * time.Hour)},
	}}
	r := newTestResolver(shares, Config{})

	link, err := r.Resolve(context.Background(), "/a.mkv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if link.Hash != "six-days" {
		t.Errorf("expected six-days, got %s", link.Hash)
	}
}

func TestResolve_ListFailureFallsBackToCreate(t *testing.T) {
	shares := &fakeShares{
		listErr:    errors.New("connection reset"),
		createLink: Link{Hash: "fresh", Token: "t"},
	}
	r := newTestResolver(shares, Config{})

	link, err := r.Resolve(context.Background(), "/a.mkv")
	if err != nil {
		t.Fatalf("expected list failure to be absorbed, got %v", err)
	}
	if link.Hash != "fresh" {
		t.Errorf("expected created link, got %s", link.Hash)
	}
}

func TestResolve_CreateFailurePropagates(t *testing.T) {
	cause := errors.New("quota exceeded")
	shares := &fakeShares{createErr: cause}
	r := newTestResolver(shares, Config{})

	_, err := r.Resolve(context.Background(), "/a.mkv")
	if !errors.Is(err, ErrShareCreationFailed) {
		t.Fatalf("expected ErrShareCreationFailed, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected original cause to be wrapped, got %v", err)
	}
}

func TestResolve_UsesConfiguredDuration(t *testing.T) {
	shares := &fakeShares{createLink: Link{Hash: "h"}}
	r := newTestResolver(shares, Config{Duration: 1, Unit: "hours"})

	if _, err := r.Resolve(context.Background(), "/a.mkv"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := shares.created[0]; got.Expires != 1 || got.Unit != "hours" {
		t.Errorf("expected 1 hours, got %d %s", got.Expires, got.Unit)
	}
}

func TestIsReusable(t *testing.T) {
	threshold := 12 * time.Hour
	tests := []struct {
		name   string
		expire int64
		want   bool
	}{
		{"never expires", 0, true},
		{"negative is malformed", -5, false},
		{"already expired", inFuture(-time.Hour), false},
		{"exactly at threshold", inFuture(threshold), false},
		{"just past threshold", inFuture(threshold + time.Second), true},
		{"well within lifetime", inFuture(7 * 24 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsReusable(Link{Expire: tt.expire}, testNow, threshold)
			if got != tt.want {
				t.Errorf("IsReusable(expire=%d) = %v, want %v", tt.expire, got, tt.want)
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := NewResolver(nil, nil, Config{}).Config()
	if cfg.ReuseMinRemaining != 12*time.Hour {
		t.Errorf("expected 12h reuse threshold, got %s", cfg.ReuseMinRemaining)
	}
	if cfg.Duration != 7 || cfg.Unit != "days" {
		t.Errorf("expected 7 days, got %d %s", cfg.Duration, cfg.Unit)
	}
}
