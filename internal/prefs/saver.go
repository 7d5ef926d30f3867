package prefs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/odyssey-erp/vouchergrid/internal/shared"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

// DefaultPushDelay coalesces bursts of layout edits into one remote write.
const DefaultPushDelay = 400 * time.Millisecond

// PushFunc delivers a bag to the remote store, typically by enqueueing a
// background task.
type PushFunc func(vt voucher.VoucherType, bag Bag) error

// Saver writes preferences locally right away and mirrors them remotely
// through a debounced, fire-and-forget push. Remote failures never block or
// surface; local persistence is the durability guarantee.
type Saver struct {
	local  Store
	push   PushFunc
	logger *slog.Logger
	delay  time.Duration

	mu        sync.Mutex
	debounced map[voucher.VoucherType]*shared.Debouncer
	latest    map[voucher.VoucherType]Bag
}

// NewSaver constructs a Saver. push may be nil for local-only operation.
func NewSaver(local Store, push PushFunc, logger *slog.Logger, delay time.Duration) *Saver {
	if delay <= 0 {
		delay = DefaultPushDelay
	}
	return &Saver{
		local:     local,
		push:      push,
		logger:    logger,
		delay:     delay,
		debounced: map[voucher.VoucherType]*shared.Debouncer{},
		latest:    map[voucher.VoucherType]Bag{},
	}
}

// Save persists the bag locally and schedules the remote push.
func (s *Saver) Save(ctx context.Context, vt voucher.VoucherType, bag Bag) error {
	if err := s.local.Save(ctx, vt, bag); err != nil {
		return err
	}
	if s.push == nil {
		return nil
	}

	s.mu.Lock()
	s.latest[vt] = bag
	d, ok := s.debounced[vt]
	if !ok {
		d = shared.NewDebouncer(s.delay)
		s.debounced[vt] = d
	}
	s.mu.Unlock()

	d.Trigger(func() {
		s.mu.Lock()
		pending := s.latest[vt]
		s.mu.Unlock()
		if err := s.push(vt, pending); err != nil && s.logger != nil {
			s.logger.Warn("remote preference push failed",
				slog.String("voucher_type", string(vt)),
				slog.Any("error", err))
		}
	})
	return nil
}

// Load reads the local bag, falling back to the remote mirror when the
// local store has no entry yet.
func (s *Saver) Load(ctx context.Context, vt voucher.VoucherType, remote Store) (Bag, bool, error) {
	bag, ok, err := s.local.Load(ctx, vt)
	if err != nil || ok {
		return bag, ok, err
	}
	if remote == nil {
		return Bag{}, false, nil
	}
	bag, ok, err = remote.Load(ctx, vt)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("remote preference load failed", slog.Any("error", err))
		}
		return Bag{}, false, nil
	}
	return bag, ok, nil
}
