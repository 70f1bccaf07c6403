package utils

import (
	"regexp"
	"strings"
)

var unsafePathChars = regexp.MustCompile(`[<>:"/\\|?*[:cntrl:]]`)

// SanitizeFilename turns a release name into something safe to write into
// the save directory: path separators, shell-hostile punctuation and control
// characters are dropped, trailing dots and spaces trimmed. A name with
// nothing left falls back to "download" so the fetch never targets an empty
// path.
func SanitizeFilename(name string) string {
	s := unsafePathChars.ReplaceAllString(name, "")
	s = strings.TrimRight(s, " .")
	if s == "" {
		return "download"
	}
	return s
}
