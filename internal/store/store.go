package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/mediacutlet/nomadachi/internal/progress"
)

// Failure modes callers branch on with errors.Is
var (
	// ErrNotFound means no state file exists yet
	ErrNotFound = errors.New("state not found")
	// ErrCorrupt means the state file exists but cannot be trusted
	ErrCorrupt = errors.New("state corrupt")
	// ErrLegacyMissing means there is no legacy file to migrate from
	ErrLegacyMissing = errors.New("legacy state missing")
	// ErrLegacyMalformed means the legacy file is not valid JSON
	ErrLegacyMalformed = errors.New("legacy state malformed")
)

// Source says where Bootstrap found its state
type Source string

const (
	SourceFile      Source = "file"
	SourceMigration Source = "migration"
	SourceFresh     Source = "fresh"
)

// File persists progression state as a single JSON document
type File struct {
	Path string
}

// stateFile is the on-disk shape. Sets serialize as sorted arrays so
// repeated saves of the same state produce identical bytes.
type stateFile struct {
	SeenESSIDs []string `json:"seen_essids"`
	SeenBSSIDs []string `json:"seen_bssids"`
	SeenOUIs   []string `json:"seen_ouis"`
	SeenBands  []string `json:"seen_bands"`
	SeenPlaces []string `json:"seen_places"`
	TotalXP    int      `json:"total_xp"`
	LastPlace  string   `json:"last_place,omitempty"`
	Migrated   bool     `json:"migrated_from_age"`
}

// legacyFile is the subset of the age plugin's state this build understands.
// Every field is optional; unique_channels has no counterpart here and is
// dropped on purpose.
type legacyFile struct {
	TravelXP      int      `json:"travel_xp"`
	UniqueESSIDs  []string `json:"unique_essids"`
	UniqueBSSIDs  []string `json:"unique_bssids"`
	UniqueOUIs    []string `json:"unique_ouis"`
	UniqueBands   []string `json:"unique_bands"`
	PlaceHashes   []string `json:"place_hashes"`
	LastPlaceHash string   `json:"last_place_hash"`
}

// Load reads the state file. A missing file is ErrNotFound; content that
// does not parse or fails basic sanity is ErrCorrupt, never silently
// replaced with empty state.
func (f *File) Load() (*progress.State, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	var doc stateFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if doc.TotalXP < 0 {
		return nil, fmt.Errorf("%w: negative total_xp %d", ErrCorrupt, doc.TotalXP)
	}
	st := progress.NewState()
	fill(st.SeenESSIDs, doc.SeenESSIDs)
	fill(st.SeenBSSIDs, doc.SeenBSSIDs)
	fill(st.SeenOUIs, doc.SeenOUIs)
	fill(st.SeenBands, doc.SeenBands)
	fill(st.SeenPlaces, doc.SeenPlaces)
	st.TotalXP = doc.TotalXP
	st.LastPlace = doc.LastPlace
	st.Migrated = doc.Migrated
	return st, nil
}

// Save writes the state durably: marshal to a sibling temp file, fsync,
// then rename over the target, so a crash mid-write never leaves a
// truncated file for Load.
func (f *File) Save(st *progress.State) error {
	doc := &stateFile{
		SeenESSIDs: sortedKeys(st.SeenESSIDs),
		SeenBSSIDs: sortedKeys(st.SeenBSSIDs),
		SeenOUIs:   sortedKeys(st.SeenOUIs),
		SeenBands:  sortedKeys(st.SeenBands),
		SeenPlaces: sortedKeys(st.SeenPlaces),
		TotalXP:    st.TotalXP,
		LastPlace:  st.LastPlace,
		Migrated:   st.Migrated,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	tmpPath := f.Path + ".tmp"
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp state: %w", err)
	}
	if err := os.Rename(tmpPath, f.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

// Remove deletes the state file. Deleting the file is the only supported
// reset path; a file that is already gone is not an error.
func (f *File) Remove() error {
	err := os.Remove(f.Path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove state: %w", err)
	}
	return nil
}

// MigrateAge reads the travel fields out of an age plugin state file and
// builds a fresh aggregate marked as migrated. Missing fields default to
// empty; only a file that fails to parse is an error.
func MigrateAge(path string) (*progress.State, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrLegacyMissing
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLegacyMissing, err)
	}
	var doc legacyFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLegacyMalformed, err)
	}
	st := progress.NewState()
	fill(st.SeenESSIDs, doc.UniqueESSIDs)
	fill(st.SeenBSSIDs, doc.UniqueBSSIDs)
	fill(st.SeenOUIs, doc.UniqueOUIs)
	fill(st.SeenBands, doc.UniqueBands)
	fill(st.SeenPlaces, doc.PlaceHashes)
	if doc.TravelXP > 0 {
		st.TotalXP = doc.TravelXP
	}
	st.LastPlace = doc.LastPlaceHash
	st.Migrated = true
	return st, nil
}

// Bootstrap produces the starting aggregate: saved state when present,
// otherwise a one-time legacy migration when enabled, otherwise fresh.
// Corrupt saved state propagates as an error so callers choose between
// halting and explicitly starting over. A successful migration is
// persisted immediately; if that persist fails the migrated state is
// still used and the flag rides along with the next save.
func (f *File) Bootstrap(legacyPath string, migrate bool, logger *zap.Logger) (*progress.State, Source, error) {
	st, err := f.Load()
	if err == nil {
		return st, SourceFile, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, "", err
	}

	if migrate && legacyPath != "" {
		mig, merr := MigrateAge(legacyPath)
		switch {
		case merr == nil:
			if serr := f.Save(mig); serr != nil {
				logger.Warn("could not persist migrated state", zap.Error(serr))
			}
			logger.Info("migrated legacy travel data",
				zap.String("from", legacyPath),
				zap.Int("xp", mig.TotalXP),
				zap.Int("places", len(mig.SeenPlaces)))
			return mig, SourceMigration, nil
		case errors.Is(merr, ErrLegacyMissing):
		case errors.Is(merr, ErrLegacyMalformed):
			logger.Warn("legacy state unreadable, skipping migration", zap.Error(merr))
		default:
			logger.Warn("legacy migration failed, skipping", zap.Error(merr))
		}
	}
	return progress.NewState(), SourceFresh, nil
}

func fill(set map[string]struct{}, keys []string) {
	for _, k := range keys {
		if k == "" {
			continue
		}
		set[k] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
