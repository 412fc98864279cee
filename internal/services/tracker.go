package services

import (
	"context"
	"sync"
	"time"

	"github.com/bep/debounce"
	"go.uber.org/zap"

	"github.com/mediacutlet/nomadachi/internal/geo"
	"github.com/mediacutlet/nomadachi/internal/gps"
	"github.com/mediacutlet/nomadachi/internal/journal"
	"github.com/mediacutlet/nomadachi/internal/progress"
	"github.com/mediacutlet/nomadachi/internal/render"
	"github.com/mediacutlet/nomadachi/internal/store"
	"github.com/mediacutlet/nomadachi/internal/title"
	"github.com/mediacutlet/nomadachi/internal/types"
	"github.com/mediacutlet/nomadachi/internal/wifi"
)

// subscriber wraps a channel with safe close handling
type subscriber struct {
	ch        chan *types.StatusUpdate
	closeOnce sync.Once
	closed    bool
}

func (sub *subscriber) close() {
	sub.closeOnce.Do(func() {
		sub.closed = true
		close(sub.ch)
	})
}

func (sub *subscriber) send(update *types.StatusUpdate) bool {
	if sub.closed {
		return false
	}
	select {
	case sub.ch <- update:
		return true
	default:
		return false
	}
}

// TrackerConfig carries the Tracker's collaborators and display tuning.
// Journal and GPS may be nil; everything else must be set.
type TrackerConfig struct {
	Progress *progress.Store
	File     *store.File
	Journal  *journal.DB
	Session  *journal.Session
	GPS      gps.Source
	Resolver geo.Resolver
	Book     *title.Book
	Logger   *zap.Logger

	Format    string
	Anchor    types.Anchor
	BarAnchor types.Anchor
	ShowBar   bool
	BarCells  int
	BarFill   rune

	// SaveDebounce coalesces award bursts into one state write; zero
	// saves synchronously after every award.
	SaveDebounce time.Duration
}

// Tracker scores discovery events, persists progression and fans out
// status updates to subscribers
type Tracker struct {
	progress *progress.Store
	file     *store.File
	journal  *journal.DB
	session  *journal.Session
	gps      gps.Source
	resolver geo.Resolver
	book     *title.Book
	logger   *zap.Logger

	format    string
	anchor    types.Anchor
	barAnchor types.Anchor
	showBar   bool
	barCells  int
	barFill   rune

	// nil when saves are synchronous
	debounced func(func())

	subMu       sync.RWMutex
	subscribers []*subscriber
	closed      bool
}

// NewTracker creates a tracker service
func NewTracker(cfg TrackerConfig) *Tracker {
	t := &Tracker{
		progress:  cfg.Progress,
		file:      cfg.File,
		journal:   cfg.Journal,
		session:   cfg.Session,
		gps:       cfg.GPS,
		resolver:  cfg.Resolver,
		book:      cfg.Book,
		logger:    cfg.Logger,
		format:    cfg.Format,
		anchor:    cfg.Anchor,
		barAnchor: cfg.BarAnchor,
		showBar:   cfg.ShowBar,
		barCells:  cfg.BarCells,
		barFill:   cfg.BarFill,
	}
	if cfg.SaveDebounce > 0 {
		t.debounced = debounce.New(cfg.SaveDebounce)
	}
	return t
}

// Subscribe registers a status listener. After Close the returned channel
// is already closed.
func (t *Tracker) Subscribe() chan *types.StatusUpdate {
	t.subMu.Lock()
	defer t.subMu.Unlock()

	sub := &subscriber{ch: make(chan *types.StatusUpdate, 10)}
	if t.closed {
		sub.close()
		return sub.ch
	}
	t.subscribers = append(t.subscribers, sub)
	return sub.ch
}

// Unsubscribe removes a listener and closes its channel
func (t *Tracker) Unsubscribe(ch chan *types.StatusUpdate) {
	t.subMu.Lock()
	defer t.subMu.Unlock()

	for i, sub := range t.subscribers {
		if sub.ch == ch {
			// Remove from slice first, then close safely
			t.subscribers = append(t.subscribers[:i], t.subscribers[i+1:]...)
			sub.close()
			break
		}
	}
}

// broadcast sends a status update to all subscribers
func (t *Tracker) broadcast(update *types.StatusUpdate) {
	t.subMu.RLock()
	// Make a copy of the slice to avoid holding the lock during send
	subs := make([]*subscriber, len(t.subscribers))
	copy(subs, t.subscribers)
	t.subMu.RUnlock()

	for _, sub := range subs {
		sub.send(update)
	}
}

func (t *Tracker) closeSubscribers() {
	t.subMu.Lock()
	defer t.subMu.Unlock()

	for _, sub := range t.subscribers {
		sub.close()
	}
	t.subscribers = nil
	t.closed = true
}

// HandleDiscovery scores one observed access point. Fully-seen events come
// back with a zero award; novel ones are journaled, persisted and broadcast.
func (t *Tracker) HandleDiscovery(ctx context.Context, ev types.DiscoveryEvent) (*types.AwardResult, error) {
	keys := wifi.Classify(ev)

	loc := ev.Location
	if loc == nil && t.gps != nil {
		if fix, ok := t.gps.Current(); ok {
			loc = &fix
		}
	}
	placeKey := t.resolver.PlaceKey(loc, keys)

	aw := t.progress.RecordEvent(keys, placeKey)

	result := &types.AwardResult{
		XP:       aw.XP,
		NewPlace: aw.NewPlace,
		Place:    aw.Place,
		TotalXP:  aw.TotalXP,
		Title:    t.book.ForXP(aw.TotalXP),
		Level:    t.book.Level(aw.TotalXP),
	}
	for _, c := range aw.Categories {
		result.Categories = append(result.Categories, string(c))
	}

	if !aw.Novel() {
		return result, nil
	}

	result.LeveledUp = result.Level > t.book.Level(aw.TotalXP-aw.XP)

	t.recordJournal(ev, keys, aw, result)
	t.scheduleSave()
	t.broadcast(t.Status())

	return result, nil
}

// recordJournal appends the award to the journal. Journal trouble is
// logged and never blocks event processing.
func (t *Tracker) recordJournal(ev types.DiscoveryEvent, keys wifi.Keys, aw progress.Award, result *types.AwardResult) {
	if t.journal == nil {
		return
	}

	observed := ev.SeenAt
	if observed.IsZero() {
		observed = time.Now().UTC()
	}

	sessionID := ""
	if t.session != nil {
		sessionID = t.session.ID
	}

	_, err := t.journal.RecordDiscovery(&journal.Discovery{
		SessionID:  sessionID,
		ObservedAt: observed,
		ESSID:      keys.ESSID,
		BSSID:      keys.BSSID,
		Band:       keys.Band,
		Place:      aw.Place,
		Categories: result.Categories,
		XP:         aw.XP,
	})
	if err != nil {
		t.logger.Warn("journal write failed", zap.Error(err))
	}

	newPlaces := 0
	if aw.NewPlace {
		newPlaces = 1
	}
	if err := t.journal.AddDailyTally(observed, 1, aw.XP, newPlaces); err != nil {
		t.logger.Warn("daily tally write failed", zap.Error(err))
	}

	if result.LeveledUp {
		_, err := t.journal.RecordUnlock(&journal.TitleUnlock{
			SessionID:  sessionID,
			UnlockedAt: observed,
			Level:      result.Level,
			Title:      result.Title,
			TotalXP:    aw.TotalXP,
		})
		if err != nil {
			t.logger.Warn("unlock write failed", zap.Error(err))
		}
		t.logger.Info("title unlocked",
			zap.String("title", result.Title),
			zap.Int("level", result.Level),
			zap.Int("total_xp", aw.TotalXP),
		)
	}
}

// Status assembles the display payload the host renders
func (t *Tracker) Status() *types.StatusUpdate {
	totals := t.progress.Totals()

	st := &types.StatusUpdate{
		Title:     t.book.ForXP(totals.XP),
		Level:     t.book.Level(totals.XP),
		TotalXP:   totals.XP,
		Places:    totals.Places,
		ESSIDs:    totals.ESSIDs,
		BSSIDs:    totals.BSSIDs,
		OUIs:      totals.OUIs,
		Bands:     totals.Bands,
		LastPlace: totals.LastPlace,
		Anchor:    t.anchor,
		BarAnchor: t.barAnchor,
		UpdatedAt: time.Now().UTC(),
	}
	st.Text = render.Prefix + render.Line(t.format, render.Status{
		Title:  st.Title,
		Level:  st.Level,
		Places: st.Places,
	})
	if t.showBar {
		st.Bar = render.Bar(totals.XP, t.book, t.barCells, t.barFill)
	}
	return st
}

// Flush writes the current state immediately, bypassing the debounce window
func (t *Tracker) Flush() {
	t.save()
}

// Close flushes state, ends the journal session and detaches subscribers.
// A debounced save still pending after Close is harmless: it writes the
// same snapshot atomically.
func (t *Tracker) Close() {
	t.save()
	if t.journal != nil && t.session != nil {
		if err := t.journal.EndSession(t.session.ID); err != nil {
			t.logger.Warn("failed to end journal session", zap.Error(err))
		}
	}
	t.closeSubscribers()
}

func (t *Tracker) scheduleSave() {
	if t.debounced == nil {
		t.save()
		return
	}
	t.debounced(t.save)
}

// save snapshots under the store lock and writes outside it. Failures are
// logged; in-memory progression keeps going.
func (t *Tracker) save() {
	snap := t.progress.Snapshot()
	if err := t.file.Save(snap); err != nil {
		t.logger.Warn("state save failed, progression continues in memory",
			zap.String("path", t.file.Path), zap.Error(err))
	}
}
