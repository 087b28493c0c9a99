package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gardenmarket/listing-herald/internal/discord"
	"github.com/gardenmarket/listing-herald/internal/market"
	"github.com/gardenmarket/listing-herald/internal/metrics"
	"github.com/gardenmarket/listing-herald/internal/store"
	domain "github.com/gardenmarket/listing-herald/pkg/types"
)

// Poller cycle states.
const (
	stateIdle int32 = iota
	statePolling
)

// ErrCycleRunning is returned when a cycle is requested while the
// previous one is still in flight. The tick is skipped, never queued.
var ErrCycleRunning = errors.New("pipeline: poll cycle already running")

// NewListingFunc observes each listing on first persistence.
type NewListingFunc func(l *domain.Listing)

// BatchDeliveredFunc observes each successfully posted batch.
type BatchDeliveredFunc func(b *domain.Batch, messageID string)

// InteractionFunc observes each resolved purchase interaction.
type InteractionFunc func(l *domain.Listing, messageID string, position int)

// Poller orchestrates one full poll cycle: fetch, status scan, diff,
// persist, batch, deliver. At most one cycle runs at a time; a tick that
// arrives while a cycle is in flight is dropped.
type Poller struct {
	store     store.Store
	source    market.Source
	transport discord.Transport
	tracker   *Tracker
	log       *slog.Logger

	channelID       string
	batchSize       int
	interBatchDelay time.Duration

	state atomic.Int32
	// seqBase keeps published batch numbering monotonic across cycles.
	// It advances by every assigned sequence, including failed sends,
	// so a number is never reused; failures leave gaps.
	seqBase atomic.Int64

	onNewListing     []NewListingFunc
	onBatchDelivered []BatchDeliveredFunc
	onInteraction    []InteractionFunc
}

// PollerOption configures the Poller.
type PollerOption func(*Poller)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) PollerOption {
	return func(p *Poller) {
		p.log = l
	}
}

// WithBatchSize sets how many listings share one message.
func WithBatchSize(n int) PollerOption {
	return func(p *Poller) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithInterBatchDelay sets the pause between sequential batch sends.
func WithInterBatchDelay(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d >= 0 {
			p.interBatchDelay = d
		}
	}
}

// NewPoller creates a Poller with injected collaborators.
func NewPoller(
	s store.Store,
	src market.Source,
	tr discord.Transport,
	channelID string,
	opts ...PollerOption,
) *Poller {
	p := &Poller{
		store:           s,
		source:          src,
		transport:       tr,
		tracker:         NewTracker(s, nil),
		log:             slog.Default(),
		channelID:       channelID,
		batchSize:       5,
		interBatchDelay: time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.tracker = NewTracker(s, p.log)
	return p
}

// Tracker exposes the delivery tracker for interaction handlers.
func (p *Poller) Tracker() *Tracker {
	return p.tracker
}

// OnNewListing registers an observer invoked once per newly persisted
// listing, in delivery order. Observer panics are isolated.
func (p *Poller) OnNewListing(fn NewListingFunc) {
	p.onNewListing = append(p.onNewListing, fn)
}

// OnBatchDelivered registers an observer invoked after each successful
// batch post.
func (p *Poller) OnBatchDelivered(fn BatchDeliveredFunc) {
	p.onBatchDelivered = append(p.onBatchDelivered, fn)
}

// OnInteraction registers an observer invoked for each resolved
// purchase interaction.
func (p *Poller) OnInteraction(fn InteractionFunc) {
	p.onInteraction = append(p.onInteraction, fn)
}

// Running reports whether a cycle is currently in flight.
func (p *Poller) Running() bool {
	return p.state.Load() == statePolling
}

// RunCycle executes one poll cycle. Returns ErrCycleRunning when the
// previous cycle has not finished; the caller should treat that as a
// skipped tick, not a failure. Any panic inside the cycle is recovered
// at this boundary so the next tick proceeds from persisted state.
func (p *Poller) RunCycle(ctx context.Context) (err error) {
	if !p.state.CompareAndSwap(stateIdle, statePolling) {
		p.log.Warn("poll tick skipped, previous cycle still running")
		metrics.CyclesSkipped.Inc()
		return ErrCycleRunning
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("poll cycle panicked", "panic", r)
			err = fmt.Errorf("poll cycle panic: %v", r)
		}
		if err != nil {
			metrics.CycleErrors.Inc()
		}
		metrics.CycleDuration.Observe(time.Since(start).Seconds())
		metrics.CyclesTotal.Inc()
		p.state.Store(stateIdle)
	}()

	return p.runCycle(ctx)
}

func (p *Poller) runCycle(ctx context.Context) error {
	fetched, err := p.source.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetching listings: %w", err)
	}

	index, dups := IndexByID(fetched)
	for _, id := range dups {
		p.log.Warn("duplicate listing id in fetch, keeping first occurrence", "id", id)
	}

	// Status edits finish before new-listing detection begins.
	p.applyStatusChanges(ctx, index)

	known, err := p.store.KnownListingIDs(ctx)
	if err != nil {
		return fmt.Errorf("loading known ids: %w", err)
	}
	newListings := FindNew(fetched, known)

	// Listings persisted earlier whose delivery failed get another
	// attempt, ahead of this cycle's new ones.
	leftover, err := p.store.ListUndelivered(ctx)
	if err != nil {
		return fmt.Errorf("loading undelivered listings: %w", err)
	}

	if len(newListings) == 0 && len(leftover) == 0 {
		p.log.Debug("cycle complete, nothing to deliver")
		return nil
	}

	now := time.Now().UTC()
	for i := range newListings {
		l := &newListings[i]
		l.FirstSeenAt = now
		inserted, insErr := p.store.InsertListingIfAbsent(ctx, l)
		if insErr != nil {
			return fmt.Errorf("persisting listing %s: %w", l.ID, insErr)
		}
		if !inserted {
			p.log.Debug("listing already persisted", "id", l.ID)
			metrics.DuplicateInsertsTotal.Inc()
			continue
		}
		metrics.NewListingsTotal.Inc()
		p.emitNewListing(l)
	}

	queue := make([]domain.Listing, 0, len(leftover)+len(newListings))
	queue = append(queue, leftover...)
	queue = append(queue, newListings...)

	delivered := p.deliverBatches(ctx, MakeBatches(queue, p.batchSize))
	p.log.Info("poll cycle complete",
		"fetched", len(fetched),
		"new", len(newListings),
		"requeued", len(leftover),
		"batches_delivered", delivered,
	)
	return nil
}

// applyStatusChanges persists status flips on delivered listings and
// regenerates each affected message in full. A failed edit for one
// message never blocks edits for others.
func (p *Poller) applyStatusChanges(ctx context.Context, index map[string]*domain.Listing) {
	groups, err := p.tracker.ListForStatusScan(ctx)
	if err != nil {
		p.log.Error("status scan failed", "error", err)
		return
	}

	for gi := range groups {
		g := &groups[gi]

		changes := FindStatusChanges(index, g.Entries)
		if len(changes) == 0 {
			continue
		}

		entryByID := make(map[string]*domain.TrackedListing, len(g.Entries))
		for ei := range g.Entries {
			entryByID[g.Entries[ei].Listing.ID] = &g.Entries[ei]
		}

		var applied bool
		for _, ch := range changes {
			p.log.Info("listing status changed",
				"id", ch.ListingID,
				"old", ch.Old,
				"new", ch.New,
			)
			metrics.StatusChangesTotal.Inc()

			updatedAt := index[ch.ListingID].UpdatedAt

			// Persist before requesting the edit so a transport
			// failure never loses the observed state.
			if err := p.store.SetListingStatus(ctx, ch.ListingID, ch.New, updatedAt); err != nil {
				p.log.Error("persisting status change failed", "id", ch.ListingID, "error", err)
				continue
			}
			entry := entryByID[ch.ListingID]
			entry.Listing.Status = ch.New
			entry.Listing.UpdatedAt = updatedAt
			applied = true
		}

		if !applied {
			continue
		}

		listings := make([]domain.Listing, len(g.Entries))
		for i := range g.Entries {
			listings[i] = g.Entries[i].Listing
		}
		content := discord.RenderListings(listings, g.BatchSeq)

		if err := p.transport.EditMessage(ctx, g.ChannelID, g.MessageID, content); err != nil {
			p.log.Error("message edit failed", "message_id", g.MessageID, "error", err)
			metrics.MessageEditFailures.Inc()
			continue
		}
		metrics.MessageEdits.Inc()
	}
}

// deliverBatches posts batches strictly in sequence with a pause between
// sends, recording and marking each batch only after send success.
// Returns the number of batches delivered.
func (p *Poller) deliverBatches(ctx context.Context, batches []domain.Batch) int {
	var delivered int
	for i := range batches {
		if i > 0 && p.interBatchDelay > 0 {
			select {
			case <-ctx.Done():
				p.log.Warn("delivery interrupted", "remaining", len(batches)-i)
				return delivered
			case <-time.After(p.interBatchDelay):
			}
		}

		b := &batches[i]
		b.Sequence += int(p.seqBase.Load())

		messageID, err := p.transport.PostBatch(ctx, p.channelID, b)
		if err != nil {
			if errors.Is(err, discord.ErrUnknownChannel) {
				p.log.Warn("batch delivery skipped, channel unknown", "sequence", b.Sequence)
			} else {
				p.log.Error("batch delivery failed", "sequence", b.Sequence, "error", err)
			}
			metrics.BatchesFailed.Inc()
			continue
		}

		ids := make([]string, 0, len(b.Listings))
		for pos := range b.Listings {
			l := &b.Listings[pos]
			rec := &domain.DeliveryRecord{
				ListingID:   l.ID,
				MessageID:   messageID,
				ChannelID:   p.channelID,
				BatchSeq:    b.Sequence,
				Position:    pos + 1,
				DeliveredAt: time.Now().UTC(),
			}
			if err := p.tracker.Record(ctx, rec); err != nil {
				p.log.Error("recording delivery failed", "listing_id", l.ID, "error", err)
				continue
			}
			ids = append(ids, l.ID)
		}

		if err := p.store.MarkDelivered(ctx, ids); err != nil {
			p.log.Error("marking listings delivered failed", "error", err)
		}

		metrics.BatchesDelivered.Inc()
		delivered++
		p.emitBatchDelivered(b, messageID)
	}

	p.seqBase.Add(int64(len(batches)))
	return delivered
}

// HandleInteraction resolves a purchase button press back to its
// listing. Returns nil for stale or unknown references.
func (p *Poller) HandleInteraction(ctx context.Context, messageID string, position int) (*domain.Listing, error) {
	l, err := p.tracker.Resolve(ctx, messageID, position)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, nil
	}
	p.emitInteraction(l, messageID, position)
	return l, nil
}

func (p *Poller) emitNewListing(l *domain.Listing) {
	for _, fn := range p.onNewListing {
		p.safeEmit("new_listing", func() { fn(l) })
	}
}

func (p *Poller) emitBatchDelivered(b *domain.Batch, messageID string) {
	for _, fn := range p.onBatchDelivered {
		p.safeEmit("batch_delivered", func() { fn(b, messageID) })
	}
}

func (p *Poller) emitInteraction(l *domain.Listing, messageID string, position int) {
	for _, fn := range p.onInteraction {
		p.safeEmit("interaction", func() { fn(l, messageID, position) })
	}
}

// safeEmit isolates observer panics so a misbehaving hook cannot abort
// the cycle.
func (p *Poller) safeEmit(event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("observer panicked", "event", event, "panic", r)
		}
	}()
	fn()
}
