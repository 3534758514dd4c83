package domain

import (
	"strings"
	"time"
)

// FAQ is a canned chat answer triggered by keywords.
type FAQ struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Keywords  string    `json:"keywords"`
	Order     int       `json:"order"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// KeywordList splits the comma-separated keywords into trimmed, lowercased
// tokens. Empty tokens are dropped.
func (f FAQ) KeywordList() []string {
	parts := strings.Split(f.Keywords, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if k := strings.ToLower(strings.TrimSpace(p)); k != "" {
			out = append(out, k)
		}
	}
	return out
}
