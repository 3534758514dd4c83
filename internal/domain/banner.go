package domain

import (
	"fmt"
	"strings"
	"time"
)

// Banner is one image of the storefront slider. ImageURL is either absolute
// or a path inside the banner bucket.
type Banner struct {
	ID        string    `json:"id"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAbsoluteURL reports whether ref already points at a full or
// protocol-relative URL.
func IsAbsoluteURL(ref string) bool {
	return strings.HasPrefix(ref, "http") || strings.HasPrefix(ref, "//")
}

// PublicObjectURL builds the public URL of an object in a hosted storage bucket.
func PublicObjectURL(baseURL, bucket, path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		strings.TrimRight(baseURL, "/"), bucket, strings.TrimLeft(path, "/"))
}

// ResolveImageURL turns a stored banner reference into a displayable URL.
// Absolute references are returned unchanged; empty ones resolve to "".
func ResolveImageURL(ref, baseURL, bucket string) string {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return ""
	case IsAbsoluteURL(ref):
		return ref
	default:
		return PublicObjectURL(baseURL, bucket, ref)
	}
}
