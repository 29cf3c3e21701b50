package utils

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// NewID generates a new random id for projects and drawings.
func NewID() string {
	return uuid.NewString()
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9\-_.]`)

// SanitizeFileName replaces every character outside [A-Za-z0-9-_.] with "_"
// so names can be used as path components.
func SanitizeFileName(name string) string {
	return unsafeFileChars.ReplaceAllString(name, "_")
}

// TrimDrawingExt strips a trailing .excalidraw or .json extension.
func TrimDrawingExt(name string) string {
	for _, ext := range []string{".excalidraw", ".json"} {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}
