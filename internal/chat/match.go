// Package chat implements the FAQ assistant: keyword matching and the
// per-visitor conversation with its delayed replies.
package chat

import (
	"strings"

	"github.com/utafrali/quecomemoshoy/internal/domain"
)

// Match returns the first FAQ, in list order, with a keyword contained in
// the lowercased input. Empty keywords never match.
func Match(faqs []domain.FAQ, input string) (domain.FAQ, bool) {
	text := strings.ToLower(input)
	for _, f := range faqs {
		for _, k := range f.KeywordList() {
			if strings.Contains(text, k) {
				return f, true
			}
		}
	}
	return domain.FAQ{}, false
}
