package chat

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/quecomemoshoy/internal/domain"
)

// Fixed assistant lines.
const (
	Greeting = "Hi! 👋 I'm your virtual assistant. How can I help you today?"
	Fallback = "Sorry, I don't have an answer for that question. 😅 Can I help you with anything else?"
)

// MaxSuggestions is how many FAQs are offered as quick questions.
const MaxSuggestions = 4

// DefaultReplyDelay is the pause before the assistant answers.
const DefaultReplyDelay = 500 * time.Millisecond

// Message authors.
const (
	FromBot  = "bot"
	FromUser = "user"
)

// Message is one entry of the transcript.
type Message struct {
	ID   string    `json:"id"`
	From string    `json:"from"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Suggestion is a quick question the visitor can click.
type Suggestion struct {
	FAQID    string `json:"faq_id"`
	Question string `json:"question"`
}

// Transcript is a point-in-time copy of a session.
type Transcript struct {
	Messages    []Message    `json:"messages"`
	Suggestions []Suggestion `json:"suggestions"`
	Typing      bool         `json:"typing"`
}

// Session is one visitor's conversation. Replies are scheduled on timers so
// the transcript shows the question first and the answer after the delay.
// Reset and Close cancel replies that have not fired yet.
type Session struct {
	mu              sync.Mutex
	faqs            []domain.FAQ
	delay           time.Duration
	messages        []Message
	showSuggestions bool
	pending         map[*time.Timer]struct{}
	closed          bool
	now             func() time.Time
}

// NewSession starts a conversation seeded with the greeting. faqs must be in
// display order; the session keeps its own copy.
func NewSession(faqs []domain.FAQ, delay time.Duration) *Session {
	s := &Session{
		faqs:    slices.Clone(faqs),
		delay:   delay,
		pending: make(map[*time.Timer]struct{}),
		now:     time.Now,
	}
	s.resetLocked()
	return s
}

func (s *Session) newMessage(from, text string) Message {
	return Message{ID: uuid.NewString(), From: from, Text: text, At: s.now().UTC()}
}

func (s *Session) resetLocked() {
	s.messages = []Message{s.newMessage(FromBot, Greeting)}
	s.showSuggestions = true
}

func (s *Session) cancelPendingLocked() {
	for t := range s.pending {
		t.Stop()
	}
	clear(s.pending)
}

// scheduleLocked appends the bot reply after the delay unless the timer is
// cancelled first.
func (s *Session) scheduleLocked(reply string) {
	var t *time.Timer
	t = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.pending[t]; !ok || s.closed {
			return
		}
		delete(s.pending, t)
		s.messages = append(s.messages, s.newMessage(FromBot, reply))
	})
	s.pending[t] = struct{}{}
}

// Submit posts free text. Blank input is ignored and reports false.
func (s *Session) Submit(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}

	s.messages = append(s.messages, s.newMessage(FromUser, text))
	s.showSuggestions = false

	reply := Fallback
	if f, ok := Match(s.faqs, text); ok {
		reply = f.Answer
	}
	s.scheduleLocked(reply)
	return true
}

// Ask posts the question of a suggested FAQ and schedules its answer.
// Unknown ids report false.
func (s *Session) Ask(faqID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}

	i := slices.IndexFunc(s.faqs, func(f domain.FAQ) bool { return f.ID == faqID })
	if i < 0 {
		return false
	}

	s.messages = append(s.messages, s.newMessage(FromUser, s.faqs[i].Question))
	s.showSuggestions = false
	s.scheduleLocked(s.faqs[i].Answer)
	return true
}

// Suggestions returns the first MaxSuggestions FAQs while suggestions are
// shown, or nil once the visitor has written something.
func (s *Session) Suggestions() []Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suggestionsLocked()
}

func (s *Session) suggestionsLocked() []Suggestion {
	if !s.showSuggestions {
		return nil
	}
	n := min(len(s.faqs), MaxSuggestions)
	out := make([]Suggestion, n)
	for i := range n {
		out[i] = Suggestion{FAQID: s.faqs[i].ID, Question: s.faqs[i].Question}
	}
	return out
}

// Transcript returns a copy of the conversation.
func (s *Session) Transcript() Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Transcript{
		Messages:    slices.Clone(s.messages),
		Suggestions: s.suggestionsLocked(),
		Typing:      len(s.pending) > 0,
	}
}

// Reset cancels pending replies and restores the greeting and suggestions.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelPendingLocked()
	s.resetLocked()
}

// SetFAQs replaces the FAQ list used for matching and suggestions.
func (s *Session) SetFAQs(faqs []domain.FAQ) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faqs = slices.Clone(faqs)
}

// Close cancels pending replies. Later calls are no-ops.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cancelPendingLocked()
}
