package slug

import (
	"path/filepath"
	"regexp"
	"strings"
)

var slugRegexp = regexp.MustCompile(`[^a-z0-9]+`)

// accents folds the Spanish letters that appear in dish and file names.
var accents = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
	"ü", "u", "ñ", "n", "à", "a", "è", "e", "ç", "c",
)

// Generate creates a URL-friendly slug from the given name.
//
// Examples:
//   - "Milanesa Napolitana" → "milanesa-napolitana"
//   - "Ñoquis del 29" → "noquis-del-29"
//   - "Café con leche!!" → "cafe-con-leche"
func Generate(name string) string {
	s := accents.Replace(strings.ToLower(strings.TrimSpace(name)))
	s = slugRegexp.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// FileName slugs the base of an uploaded file name and keeps its extension.
// A non-empty ext replaces the original extension. Names that slug to
// nothing become "file".
func FileName(name, ext string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	orig := filepath.Ext(name)
	base := Generate(strings.TrimSuffix(name, orig))
	if base == "" {
		base = "file"
	}
	if ext == "" {
		ext = strings.ToLower(orig)
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if ext == "." {
		ext = ""
	}
	return base + ext
}
