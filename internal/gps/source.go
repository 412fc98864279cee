package gps

import (
	"encoding/json"
	"math"
	"os"
	"sync"
	"time"

	"github.com/mediacutlet/nomadachi/internal/types"
)

// Fix is a validated coordinate pair stamped with the file's modification time.
type Fix struct {
	Lat float64
	Lon float64
	At  time.Time
}

// FileSource reads fixes from the first candidate file that yields valid
// coordinates. GPS companion plugins drop these files in a handful of
// well-known locations depending on version.
type FileSource struct {
	paths  []string
	maxAge time.Duration

	mu   sync.Mutex
	last *Fix
}

// NewFileSource creates a file-backed GPS source. maxAge limits how stale a
// fix may be, judged by file modification time; zero disables the age check.
func NewFileSource(paths []string, maxAge time.Duration) *FileSource {
	return &FileSource{paths: paths, maxAge: maxAge}
}

// Paths returns the candidate file list.
func (s *FileSource) Paths() []string {
	return s.paths
}

// Current returns the freshest valid fix, falling back to the last good one.
func (s *FileSource) Current() (types.Location, bool) {
	if fix, ok := s.Refresh(); ok {
		return types.Location{Lat: fix.Lat, Lon: fix.Lon}, true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return types.Location{}, false
	}
	if s.maxAge > 0 && time.Since(s.last.At) > s.maxAge {
		return types.Location{}, false
	}
	return types.Location{Lat: s.last.Lat, Lon: s.last.Lon}, true
}

// Refresh scans the candidate files in order and updates the cached fix.
func (s *FileSource) Refresh() (Fix, bool) {
	for _, path := range s.paths {
		fix, ok := s.readFix(path)
		if !ok {
			continue
		}
		s.mu.Lock()
		s.last = &fix
		s.mu.Unlock()
		return fix, true
	}
	return Fix{}, false
}

// gpsFile accepts both the lowercase shape and bettercap's capitalized one.
type gpsFile struct {
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	Latitude  *float64 `json:"Latitude"`
	Longitude *float64 `json:"Longitude"`
}

func (s *FileSource) readFix(path string) (Fix, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return Fix{}, false
	}
	if s.maxAge > 0 && time.Since(info.ModTime()) > s.maxAge {
		return Fix{}, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Fix{}, false
	}

	var parsed gpsFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Fix{}, false
	}

	lat, lon := parsed.Lat, parsed.Lon
	if lat == nil || lon == nil {
		lat, lon = parsed.Latitude, parsed.Longitude
	}
	if lat == nil || lon == nil {
		return Fix{}, false
	}
	if !validCoord(*lat, 90) || !validCoord(*lon, 180) {
		return Fix{}, false
	}

	return Fix{Lat: *lat, Lon: *lon, At: info.ModTime()}, true
}

func validCoord(v, limit float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= -limit && v <= limit
}
