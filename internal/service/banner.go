package service

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/utafrali/quecomemoshoy/internal/domain"
	"github.com/utafrali/quecomemoshoy/internal/repository"
)

// DefaultBannerInterval is how often the banner advances.
const DefaultBannerInterval = 7 * time.Second

// Slide is the banner image currently shown.
type Slide struct {
	Index int    `json:"index"`
	URL   string `json:"url"`
	Total int    `json:"total"`
}

// BannerRotator cycles through the banner images on a fixed interval.
type BannerRotator struct {
	repo     repository.BannerRepository
	baseURL  string
	bucket   string
	interval time.Duration
	logger   *slog.Logger

	mu     sync.RWMutex
	images []string
	index  int

	stop chan struct{}
	done chan struct{}
}

// NewBannerRotator creates a rotator. Relative image paths are resolved
// against bucket on the object store at baseURL.
func NewBannerRotator(repo repository.BannerRepository, baseURL, bucket string, interval time.Duration, logger *slog.Logger) *BannerRotator {
	if interval <= 0 {
		interval = DefaultBannerInterval
	}
	return &BannerRotator{
		repo:     repo,
		baseURL:  baseURL,
		bucket:   bucket,
		interval: interval,
		logger:   logger,
	}
}

// Load reads the banners and resolves their public URLs. Failures are logged
// and leave the rotator empty.
func (b *BannerRotator) Load(ctx context.Context) {
	banners, err := b.repo.List(ctx)
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to load banners", slog.String("error", err.Error()))
		return
	}

	images := make([]string, 0, len(banners))
	for _, bn := range banners {
		if u := domain.ResolveImageURL(bn.ImageURL, b.baseURL, b.bucket); u != "" {
			images = append(images, u)
		}
	}

	b.mu.Lock()
	b.images = images
	b.index = 0
	b.mu.Unlock()

	b.logger.InfoContext(ctx, "banners loaded", slog.Int("count", len(images)))
}

// Start begins rotating. Without images no ticker is started. Calling Start
// while running is a no-op.
func (b *BannerRotator) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stop != nil || len(b.images) == 0 {
		return
	}

	b.stop = make(chan struct{})
	b.done = make(chan struct{})
	go b.run(b.stop, b.done)
}

func (b *BannerRotator) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			b.Advance()
		}
	}
}

// Advance moves to the next image, wrapping around.
func (b *BannerRotator) Advance() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n := len(b.images); n > 0 {
		b.index = (b.index + 1) % n
	}
}

// Stop cancels the ticker and waits for the rotation goroutine to exit.
func (b *BannerRotator) Stop() {
	b.mu.Lock()
	stop, done := b.stop, b.done
	b.stop, b.done = nil, nil
	b.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Current returns the slide being shown. ok is false while there are no
// images to show.
func (b *BannerRotator) Current() (Slide, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.images) == 0 {
		return Slide{}, false
	}
	return Slide{Index: b.index, URL: b.images[b.index], Total: len(b.images)}, true
}

// Images returns the resolved image URLs.
func (b *BannerRotator) Images() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.images)
}
