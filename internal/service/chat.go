package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/utafrali/quecomemoshoy/internal/chat"
	"github.com/utafrali/quecomemoshoy/internal/domain"
	"github.com/utafrali/quecomemoshoy/internal/repository"
)

// ChatService keeps one chat session per visitor session.
type ChatService struct {
	repo   repository.FAQRepository
	delay  time.Duration
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*chat.Session
	lastSeen map[string]time.Time
	now      func() time.Time
	sweeper  *idleSweeper
}

// NewChatService creates a new chat service.
func NewChatService(repo repository.FAQRepository, delay time.Duration, logger *slog.Logger) *ChatService {
	if delay <= 0 {
		delay = chat.DefaultReplyDelay
	}
	return &ChatService{
		repo:     repo,
		delay:    delay,
		logger:   logger,
		sessions: make(map[string]*chat.Session),
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
}

// StartIdleEviction closes chats that have not been requested for ttl.
// Close stops the sweep.
func (s *ChatService) StartIdleEviction(ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultSessionIdleTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sweeper != nil {
		return
	}
	s.sweeper = startIdleSweeper(sweepInterval(ttl), func(now time.Time) {
		s.evictIdle(now.Add(-ttl))
	})
}

func (s *ChatService) evictIdle(cutoff time.Time) int {
	s.mu.Lock()
	var idle []*chat.Session
	for sid, seen := range s.lastSeen {
		if seen.Before(cutoff) {
			if cs, ok := s.sessions[sid]; ok {
				idle = append(idle, cs)
			}
			delete(s.sessions, sid)
			delete(s.lastSeen, sid)
		}
	}
	s.mu.Unlock()

	for _, cs := range idle {
		cs.Close()
	}
	return len(idle)
}

func (s *ChatService) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// activeFAQs returns the active FAQs in display order. Failures are logged
// and yield an empty list so the widget still answers with the fallback.
func (s *ChatService) activeFAQs(ctx context.Context) []domain.FAQ {
	faqs, err := s.repo.ListActive(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load faqs", slog.String("error", err.Error()))
		return nil
	}
	return faqs
}

// Session returns the chat for sessionID, starting a new one on first use.
func (s *ChatService) Session(ctx context.Context, sessionID string) *chat.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen[sessionID] = s.now()
	if cs, ok := s.sessions[sessionID]; ok {
		return cs
	}
	cs := chat.NewSession(s.activeFAQs(ctx), s.delay)
	s.sessions[sessionID] = cs
	return cs
}

// Reset clears the conversation and reloads the FAQ list.
func (s *ChatService) Reset(ctx context.Context, sessionID string) *chat.Session {
	cs := s.Session(ctx, sessionID)
	cs.SetFAQs(s.activeFAQs(ctx))
	cs.Reset()
	return cs
}

// Evict closes and forgets the chat for sessionID.
func (s *ChatService) Evict(sessionID string) {
	s.mu.Lock()
	cs, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	delete(s.lastSeen, sessionID)
	s.mu.Unlock()

	if ok {
		cs.Close()
	}
}

// Close stops idle eviction and closes every chat session.
func (s *ChatService) Close() {
	s.mu.Lock()
	sweeper := s.sweeper
	s.sweeper = nil
	s.mu.Unlock()
	sweeper.Stop()

	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*chat.Session)
	clear(s.lastSeen)
	s.mu.Unlock()

	for _, cs := range sessions {
		cs.Close()
	}
}
