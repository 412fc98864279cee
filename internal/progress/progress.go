package progress

import (
	"sync"

	"github.com/mediacutlet/nomadachi/internal/wifi"
)

// Category identifies one novelty dimension
type Category string

const (
	CategoryESSID Category = "essid"
	CategoryBSSID Category = "bssid"
	CategoryOUI   Category = "oui"
	CategoryBand  Category = "band"
	CategoryPlace Category = "place"
)

// Weights are the XP awards per first-time encounter in each category
type Weights struct {
	ESSID int
	BSSID int
	OUI   int
	Band  int
	Place int
}

// DefaultWeights returns the stock XP tuning
func DefaultWeights() Weights {
	return Weights{ESSID: 2, BSSID: 1, OUI: 1, Band: 2, Place: 10}
}

// State is the progression aggregate. Seen-sets only grow, and TotalXP is
// a ledger of every award ever granted; it is never recomputed from the
// sets, so reconfigured weights never rewrite history.
type State struct {
	SeenESSIDs map[string]struct{}
	SeenBSSIDs map[string]struct{}
	SeenOUIs   map[string]struct{}
	SeenBands  map[string]struct{}
	SeenPlaces map[string]struct{}
	TotalXP    int
	LastPlace  string
	Migrated   bool
}

// NewState returns an empty aggregate
func NewState() *State {
	return &State{
		SeenESSIDs: make(map[string]struct{}),
		SeenBSSIDs: make(map[string]struct{}),
		SeenOUIs:   make(map[string]struct{}),
		SeenBands:  make(map[string]struct{}),
		SeenPlaces: make(map[string]struct{}),
	}
}

// Clone returns a deep copy of the aggregate
func (st *State) Clone() *State {
	c := &State{
		SeenESSIDs: make(map[string]struct{}, len(st.SeenESSIDs)),
		SeenBSSIDs: make(map[string]struct{}, len(st.SeenBSSIDs)),
		SeenOUIs:   make(map[string]struct{}, len(st.SeenOUIs)),
		SeenBands:  make(map[string]struct{}, len(st.SeenBands)),
		SeenPlaces: make(map[string]struct{}, len(st.SeenPlaces)),
		TotalXP:    st.TotalXP,
		LastPlace:  st.LastPlace,
		Migrated:   st.Migrated,
	}
	for k := range st.SeenESSIDs {
		c.SeenESSIDs[k] = struct{}{}
	}
	for k := range st.SeenBSSIDs {
		c.SeenBSSIDs[k] = struct{}{}
	}
	for k := range st.SeenOUIs {
		c.SeenOUIs[k] = struct{}{}
	}
	for k := range st.SeenBands {
		c.SeenBands[k] = struct{}{}
	}
	for k := range st.SeenPlaces {
		c.SeenPlaces[k] = struct{}{}
	}
	return c
}

// Award reports what one event earned. TotalXP is the ledger value after
// the award, captured inside the same critical section, so XP and TotalXP
// are consistent even under concurrent events.
type Award struct {
	XP         int
	Categories []Category
	NewPlace   bool
	Place      string
	TotalXP    int
}

// Novel reports whether any category was seen for the first time. An
// award can be novel with zero XP when weights are tuned to zero.
func (a Award) Novel() bool {
	return len(a.Categories) > 0
}

// Totals is a point-in-time summary of the aggregate
type Totals struct {
	ESSIDs    int
	BSSIDs    int
	OUIs      int
	Bands     int
	Places    int
	XP        int
	LastPlace string
}

// Store is the only writer of progression state. A single mutex guards
// the whole read-check-insert-award sequence so concurrent events cannot
// double-award a key.
type Store struct {
	mu      sync.Mutex
	state   *State
	weights Weights
}

// NewStore wraps a loaded (or fresh) aggregate. The state must not be
// touched by the caller afterwards.
func NewStore(st *State, w Weights) *Store {
	if st == nil {
		st = NewState()
	}
	return &Store{state: st, weights: w}
}

// RecordEvent scores one event against the seen-sets. Categories are
// evaluated in a fixed order (ESSID, BSSID, OUI, band, place); each key
// seen for the first time is inserted and awards its weight. Empty keys
// and the canonicalization sentinel are skipped, never stored. The place
// key also updates LastPlace when new.
func (s *Store) RecordEvent(keys wifi.Keys, placeKey string) Award {
	s.mu.Lock()
	defer s.mu.Unlock()

	aw := Award{Place: placeKey}
	if scorable(keys.ESSID) && add(s.state.SeenESSIDs, keys.ESSID) {
		aw.XP += s.weights.ESSID
		aw.Categories = append(aw.Categories, CategoryESSID)
	}
	if scorable(keys.BSSID) && add(s.state.SeenBSSIDs, keys.BSSID) {
		aw.XP += s.weights.BSSID
		aw.Categories = append(aw.Categories, CategoryBSSID)
	}
	if keys.OUI != "" && add(s.state.SeenOUIs, keys.OUI) {
		aw.XP += s.weights.OUI
		aw.Categories = append(aw.Categories, CategoryOUI)
	}
	if keys.Band != "" && add(s.state.SeenBands, keys.Band) {
		aw.XP += s.weights.Band
		aw.Categories = append(aw.Categories, CategoryBand)
	}
	if placeKey != "" && add(s.state.SeenPlaces, placeKey) {
		s.state.LastPlace = placeKey
		aw.XP += s.weights.Place
		aw.NewPlace = true
		aw.Categories = append(aw.Categories, CategoryPlace)
	}
	s.state.TotalXP += aw.XP
	aw.TotalXP = s.state.TotalXP
	return aw
}

// TotalXP returns the current ledger value
func (s *Store) TotalXP() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.TotalXP
}

// PlaceCount returns the number of distinct places seen
func (s *Store) PlaceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.SeenPlaces)
}

// LastPlace returns the most recently discovered place key, or "" before
// the first place discovery
func (s *Store) LastPlace() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.LastPlace
}

// Totals returns a consistent summary of all counters
func (s *Store) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Totals{
		ESSIDs:    len(s.state.SeenESSIDs),
		BSSIDs:    len(s.state.SeenBSSIDs),
		OUIs:      len(s.state.SeenOUIs),
		Bands:     len(s.state.SeenBands),
		Places:    len(s.state.SeenPlaces),
		XP:        s.state.TotalXP,
		LastPlace: s.state.LastPlace,
	}
}

// Snapshot returns a deep copy taken under the store lock, so callers can
// serialize it without stalling event scoring.
func (s *Store) Snapshot() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func scorable(key string) bool {
	return key != "" && key != wifi.SentinelUnknown
}

func add(set map[string]struct{}, key string) bool {
	if _, ok := set[key]; ok {
		return false
	}
	set[key] = struct{}{}
	return true
}
