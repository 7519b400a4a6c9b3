package player

import (
	"strings"
)

const (
	MediaVideo = "video"
	MediaAudio = "audio"

	vlcPackage        = "org.videolan.vlc"
	justPlayerPackage = "com.brouken.player"
)

func IsMediaFile(mediaType string) bool {
	return mediaType == MediaVideo || mediaType == MediaAudio
}

func VLCAvailable(c Client, mediaType string) bool {
	return (c.IsAndroid() || c.IsIOS() || c.IsMacOS() || c.IsWindows()) && IsMediaFile(mediaType)
}

func JustPlayerAvailable(c Client, mediaType string) bool {
	return c.IsAndroid() && mediaType == MediaVideo
}

// VLCURL returns the link that opens fileURL in VLC on the client's platform.
func VLCURL(c Client, fileURL, mediaType string) string {
	if c.IsIOS() {
		return "vlc-x-callback://x-callback-url/stream?url=" + encodeURIComponent(fileURL)
	}
	if c.IsAndroid() {
		mimeType := "audio/*"
		if mediaType == MediaVideo {
			mimeType = "video/*"
		}
		return androidIntent(fileURL, mimeType, vlcPackage)
	}
	return "vlc:" + fileURL
}

func JustPlayerURL(fileURL string) string {
	return androidIntent(fileURL, "video/*", justPlayerPackage)
}

func androidIntent(fileURL, mimeType, pkg string) string {
	scheme := "http"
	if strings.HasPrefix(fileURL, "https://") {
		scheme = "https"
	}
	withoutScheme := fileURL
	if rest, ok := strings.CutPrefix(fileURL, "https://"); ok {
		withoutScheme = rest
	} else if rest, ok := strings.CutPrefix(fileURL, "http://"); ok {
		withoutScheme = rest
	}

	var b strings.Builder
	b.WriteString("intent://")
	b.WriteString(withoutScheme)
	b.WriteString("#Intent;")
	b.WriteString("scheme=" + scheme + ";")
	b.WriteString("action=android.intent.action.VIEW;")
	b.WriteString("type=" + mimeType + ";")
	b.WriteString("package=" + pkg + ";")
	b.WriteString("end")
	return b.String()
}

const upperhex = "0123456789ABCDEF"

// encodeURIComponent percent-encodes UTF-8 bytes except A-Z a-z 0-9 - _ . ! ~ * ' ( ),
// matching what browsers produce for deep-link query values.
func encodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
