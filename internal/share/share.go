// Package share selects, creates and serves public share links for media
// files. A share link grants token-authenticated, optionally time-boxed access
// to a single path without a user session.
package share

import (
	"net/url"
	"strings"
	"time"
)

// Link is a public share link for a path. Expire is a unix timestamp in
// seconds; zero means the link never expires.
type Link struct {
	Hash         string    `json:"hash"`
	Path         string    `json:"path"`
	Token        string    `json:"token"`
	Expire       int64     `json:"expire"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (l Link) PasswordProtected() bool {
	return l.PasswordHash != ""
}

// Expired reports whether an expiring link is past its deadline at now.
func (l Link) Expired(now time.Time) bool {
	return l.Expire != 0 && now.Unix() >= l.Expire
}

// Descriptor identifies the shared resource a download URL points at.
type Descriptor struct {
	Hash  string
	Path  string
	Token string
}

func (l Link) Descriptor() Descriptor {
	return Descriptor{Hash: l.Hash, Token: l.Token}
}

// DownloadURL builds the public download URL for a share:
// {baseURL}/api/public/dl/{hash}{path}?token=...[&inline=true].
func DownloadURL(baseURL string, d Descriptor, inline bool) string {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(baseURL, "/"))
	b.WriteString("/api/public/dl/")
	b.WriteString(url.PathEscape(d.Hash))
	b.WriteString(escapePath(d.Path))

	params := url.Values{}
	if inline {
		params.Set("inline", "true")
	}
	if d.Token != "" {
		params.Set("token", d.Token)
	}
	if encoded := params.Encode(); encoded != "" {
		b.WriteString("?")
		b.WriteString(encoded)
	}
	return b.String()
}

func escapePath(p string) string {
	if p == "" {
		return ""
	}
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	escaped := strings.Join(segments, "/")
	if !strings.HasPrefix(escaped, "/") {
		escaped = "/" + escaped
	}
	return escaped
}
