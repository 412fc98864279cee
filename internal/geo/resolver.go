package geo

import (
	"fmt"
	"math"

	"github.com/mediacutlet/nomadachi/internal/types"
	"github.com/mediacutlet/nomadachi/internal/wifi"
)

// DefaultGrid is the quantization cell size in degrees, roughly a
// kilometer of latitude.
const DefaultGrid = 0.01

// Resolver turns GPS fixes (or their absence) into stable place keys
type Resolver struct {
	// Grid is the quantization cell size in degrees.
	Grid float64
	// StrictNoGPS collapses all unlocated events onto one key per band.
	// When false, unlocated events key by OUI, band and channel instead,
	// which counts every distinct unlocated radio as its own place.
	StrictNoGPS bool
}

// CellKey quantizes a coordinate pair onto a grid of the given size.
// Quantization is floor division, so any two points inside the same cell
// produce the same key regardless of visit order.
func CellKey(lat, lon, grid float64) string {
	qlat := math.Floor(lat/grid) * grid
	qlon := math.Floor(lon/grid) * grid
	return fmt.Sprintf("%.4f:%.4f", qlat, qlon)
}

// PlaceKey resolves the place key for one event. A nil location falls back
// to the configured no-GPS policy.
func (r Resolver) PlaceKey(loc *types.Location, keys wifi.Keys) string {
	if loc != nil {
		return CellKey(loc.Lat, loc.Lon, r.Grid)
	}
	if r.StrictNoGPS {
		return "nogps-" + keys.Band
	}
	oui := keys.OUI
	if oui == "" {
		oui = "no:ou:i"
	}
	return fmt.Sprintf("%s-%s-%d", oui, keys.Band, keys.Channel)
}
