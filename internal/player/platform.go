// Package player decides which external media players a browser can hand a
// shared file to, and builds the deep links that open them.
package player

import (
	"regexp"

	"github.com/mssola/useragent"
)

var (
	androidPattern   = regexp.MustCompile(`(?i)Android`)
	iosDevicePattern = regexp.MustCompile(`(?i)iPhone|iPod|iPad`)
	macintoshPattern = regexp.MustCompile(`(?i)Macintosh`)
	windowsPattern   = regexp.MustCompile(`(?i)Windows NT`)
)

type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformMacOS   Platform = "macos"
	PlatformWindows Platform = "windows"
	PlatformOther   Platform = "other"
)

// Client describes the requesting browser. MaxTouchPoints is the browser's
// navigator.maxTouchPoints; it separates iPads in desktop mode, which send a
// Macintosh user agent, from real Macs.
type Client struct {
	UserAgent      string
	MaxTouchPoints int
}

func (c Client) IsAndroid() bool {
	return androidPattern.MatchString(c.UserAgent)
}

func (c Client) IsIOS() bool {
	if iosDevicePattern.MatchString(c.UserAgent) {
		return true
	}
	return macintoshPattern.MatchString(c.UserAgent) && c.MaxTouchPoints > 1
}

func (c Client) IsMacOS() bool {
	return macintoshPattern.MatchString(c.UserAgent) && c.MaxTouchPoints <= 1
}

func (c Client) IsWindows() bool {
	return windowsPattern.MatchString(c.UserAgent)
}

// Platform picks the deep-link flavour: iOS wins over Android, and anything
// else gets the desktop scheme.
func (c Client) Platform() Platform {
	switch {
	case c.IsIOS():
		return PlatformIOS
	case c.IsAndroid():
		return PlatformAndroid
	case c.IsMacOS():
		return PlatformMacOS
	case c.IsWindows():
		return PlatformWindows
	default:
		return PlatformOther
	}
}

// Browser returns the browser name reported by the user agent, e.g. "Firefox".
func (c Client) Browser() string {
	if c.UserAgent == "" {
		return ""
	}
	name, _ := useragent.New(c.UserAgent).Browser()
	return name
}

// Bot reports crawlers and link previewers that should never mint share links.
func (c Client) Bot() bool {
	if c.UserAgent == "" {
		return false
	}
	return useragent.New(c.UserAgent).Bot()
}
