package validate

import (
	"fmt"
	"strings"
)

const (
	MaxSharePathLength = 4096
	// bcrypt ignores everything past 72 bytes.
	MaxSharePasswordLength = 72
)

func checkLen(value string, max int, field string) string {
	if len(value) > max {
		return fmt.Sprintf("%s must be %d characters or fewer", field, max)
	}
	return ""
}

// SharePath returns a user-facing message when p cannot be shared, or "".
func SharePath(p string) string {
	if p == "" {
		return "path is required"
	}
	if !strings.HasPrefix(p, "/") {
		return "path must be absolute"
	}
	for _, segment := range strings.Split(p, "/") {
		if segment == ".." {
			return "path must not contain .."
		}
	}
	return checkLen(p, MaxSharePathLength, "path")
}

func SharePassword(s string) string {
	return checkLen(s, MaxSharePasswordLength, "password")
}

// MediaType accepts the resource types the player endpoints understand.
func MediaType(s string) string {
	switch s {
	case "", "video", "audio", "image", "text", "pdf", "blob":
		return ""
	}
	return fmt.Sprintf("unknown media type %q", s)
}
