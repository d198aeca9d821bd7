package utils

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out outbound lookups. Before is called ahead of record index,
// After once the record has been written.
type Pacer interface {
	Before(ctx context.Context, index int) error
	After(ctx context.Context, index int) error
}

// FixedPacer waits Delay after every record and an extra BatchPause before
// every BatchSize-th record (index > 0).
type FixedPacer struct {
	Delay      time.Duration
	BatchSize  int
	BatchPause time.Duration
}

// NewFixedPacer creates a FixedPacer from millisecond settings.
func NewFixedPacer(delayMs, batchSize, batchPauseMs int) *FixedPacer {
	return &FixedPacer{
		Delay:      time.Duration(delayMs) * time.Millisecond,
		BatchSize:  batchSize,
		BatchPause: time.Duration(batchPauseMs) * time.Millisecond,
	}
}

func (p *FixedPacer) Before(ctx context.Context, index int) error {
	if p.BatchSize > 0 && index > 0 && index%p.BatchSize == 0 {
		return sleep(ctx, p.BatchPause)
	}
	return nil
}

func (p *FixedPacer) After(ctx context.Context, _ int) error {
	return sleep(ctx, p.Delay)
}

// RatePacer paces records with a token bucket instead of fixed sleeps.
type RatePacer struct {
	limiter *rate.Limiter
}

// NewRatePacer allows rps lookups per second with a burst of one.
func NewRatePacer(rps int) *RatePacer {
	if rps < 1 {
		rps = 1
	}
	return &RatePacer{limiter: rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), 1)}
}

func (p *RatePacer) Before(ctx context.Context, _ int) error {
	return p.limiter.Wait(ctx)
}

func (p *RatePacer) After(context.Context, int) error { return nil }

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NumberSet tracks volume numbers already seen.
type NumberSet struct {
	mu   sync.Mutex
	seen map[uint32]struct{}
}

// NewNumberSet creates an empty NumberSet.
func NewNumberSet() *NumberSet {
	return &NumberSet{seen: make(map[uint32]struct{})}
}

// Add returns true if n was newly added, false if already present.
func (s *NumberSet) Add(n uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[n]; exists {
		return false
	}
	s.seen[n] = struct{}{}
	return true
}

// Size returns the number of unique numbers tracked.
func (s *NumberSet) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
