package geo

import (
	"testing"

	"github.com/mediacutlet/nomadachi/internal/types"
	"github.com/mediacutlet/nomadachi/internal/wifi"
)

func TestCellKey(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		grid     float64
		want     string
	}{
		{"san francisco", 37.7749, -122.4194, 0.01, "37.7700:-122.4200"},
		{"origin", 0, 0, 0.01, "0.0000:0.0000"},
		{"negative floors downward", -0.0001, -0.0001, 0.01, "-0.0100:-0.0100"},
		{"coarse grid", 37.7749, -122.4194, 0.1, "37.7000:-122.5000"},
		{"fine grid", 37.77495, -122.41941, 0.001, "37.7740:-122.4200"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CellKey(tt.lat, tt.lon, tt.grid); got != tt.want {
				t.Errorf("CellKey(%v, %v, %v) = %q, want %q", tt.lat, tt.lon, tt.grid, got, tt.want)
			}
		})
	}
}

func TestCellKeyDeterminism(t *testing.T) {
	// Points inside the same 0.01 degree cell resolve identically no
	// matter which is seen first.
	pairs := []struct {
		name       string
		lat1, lon1 float64
		lat2, lon2 float64
		sameCell   bool
	}{
		{"same cell", 37.7749, -122.4194, 37.7755, -122.4191, true},
		{"neighboring lat", 37.7749, -122.4194, 37.7849, -122.4194, false},
		{"neighboring lon", 37.7749, -122.4194, 37.7749, -122.4094, false},
	}

	for _, tt := range pairs {
		t.Run(tt.name, func(t *testing.T) {
			k1 := CellKey(tt.lat1, tt.lon1, 0.01)
			k2 := CellKey(tt.lat2, tt.lon2, 0.01)
			if (k1 == k2) != tt.sameCell {
				t.Errorf("CellKey(%v,%v) = %q, CellKey(%v,%v) = %q, want sameCell=%v",
					tt.lat1, tt.lon1, k1, tt.lat2, tt.lon2, k2, tt.sameCell)
			}
		})
	}
}

func TestPlaceKey(t *testing.T) {
	keys := wifi.Keys{
		ESSID:   "CafeWifi",
		BSSID:   "aa:bb:cc:11:22:33",
		OUI:     "aa:bb:cc",
		Band:    wifi.Band24,
		Channel: 6,
	}

	tests := []struct {
		name string
		r    Resolver
		loc  *types.Location
		keys wifi.Keys
		want string
	}{
		{
			"fix beats fallback",
			Resolver{Grid: 0.01, StrictNoGPS: true},
			&types.Location{Lat: 37.7749, Lon: -122.4194},
			keys,
			"37.7700:-122.4200",
		},
		{
			"strict no-gps keys by band",
			Resolver{Grid: 0.01, StrictNoGPS: true},
			nil,
			keys,
			"nogps-2.4",
		},
		{
			"loose no-gps keys by radio",
			Resolver{Grid: 0.01, StrictNoGPS: false},
			nil,
			keys,
			"aa:bb:cc-2.4-6",
		},
		{
			"loose no-gps without oui",
			Resolver{Grid: 0.01, StrictNoGPS: false},
			nil,
			wifi.Keys{BSSID: wifi.SentinelUnknown, Band: wifi.Band5, Channel: 36},
			"no:ou:i-5-36",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.PlaceKey(tt.loc, tt.keys); got != tt.want {
				t.Errorf("PlaceKey() = %q, want %q", got, tt.want)
			}
		})
	}
}
