package progress

import (
	"fmt"
	"sync"
	"testing"

	"github.com/mediacutlet/nomadachi/internal/geo"
	"github.com/mediacutlet/nomadachi/internal/types"
	"github.com/mediacutlet/nomadachi/internal/wifi"
)

func cafeEvent(lat, lon float64) (wifi.Keys, string) {
	ev := types.DiscoveryEvent{ESSID: "CafeWifi", BSSID: "AA:BB:CC:11:22:33", Band: "2.4"}
	keys := wifi.Classify(ev)
	place := geo.CellKey(lat, lon, 0.01)
	return keys, place
}

func TestRecordEventScenario(t *testing.T) {
	s := NewStore(NewState(), DefaultWeights())

	// First sighting awards every category: 2 essid + 1 bssid + 1 oui +
	// 2 band + 10 place.
	keys, place := cafeEvent(37.7749, -122.4194)
	aw := s.RecordEvent(keys, place)
	if aw.XP != 16 {
		t.Errorf("first event XP = %d, want 16", aw.XP)
	}
	if !aw.NewPlace {
		t.Error("first event should discover a new place")
	}
	if aw.TotalXP != 16 {
		t.Errorf("award TotalXP = %d, want 16", aw.TotalXP)
	}
	if got := s.TotalXP(); got != 16 {
		t.Errorf("TotalXP() = %d, want 16", got)
	}
	if got := s.PlaceCount(); got != 1 {
		t.Errorf("PlaceCount() = %d, want 1", got)
	}

	// Exact replay awards nothing and grows nothing.
	aw = s.RecordEvent(keys, place)
	if aw.XP != 0 || aw.Novel() {
		t.Errorf("replayed event = %+v, want zero award", aw)
	}
	if got := s.TotalXP(); got != 16 {
		t.Errorf("TotalXP() after replay = %d, want 16", got)
	}

	// Same radio from a different point inside the same grid cell is
	// still nothing new.
	keys3, place3 := cafeEvent(37.7755, -122.4191)
	if place3 != place {
		t.Fatalf("places differ: %q vs %q", place3, place)
	}
	aw = s.RecordEvent(keys3, place3)
	if aw.XP != 0 {
		t.Errorf("same-cell event XP = %d, want 0", aw.XP)
	}
	if got := s.PlaceCount(); got != 1 {
		t.Errorf("PlaceCount() = %d, want 1", got)
	}
}

func TestRecordEventPerCategory(t *testing.T) {
	weights := Weights{ESSID: 2, BSSID: 1, OUI: 1, Band: 2, Place: 10}

	tests := []struct {
		name     string
		keys     wifi.Keys
		place    string
		wantXP   int
		wantCats []Category
	}{
		{
			"all new",
			wifi.Keys{ESSID: "A", BSSID: "de:ad:be:ef:00:01", OUI: "de:ad:be", Band: "2.4"},
			"37.7700:-122.4200",
			16,
			[]Category{CategoryESSID, CategoryBSSID, CategoryOUI, CategoryBand, CategoryPlace},
		},
		{
			"empty essid skips essid scoring",
			wifi.Keys{BSSID: "de:ad:be:ef:00:01", OUI: "de:ad:be", Band: "2.4"},
			"37.7700:-122.4200",
			14,
			[]Category{CategoryBSSID, CategoryOUI, CategoryBand, CategoryPlace},
		},
		{
			"sentinel bssid skips bssid and oui",
			wifi.Keys{ESSID: "A", BSSID: wifi.SentinelUnknown, Band: "2.4"},
			"37.7700:-122.4200",
			14,
			[]Category{CategoryESSID, CategoryBand, CategoryPlace},
		},
		{
			"unknown band is a real key",
			wifi.Keys{ESSID: "A", BSSID: "de:ad:be:ef:00:01", OUI: "de:ad:be", Band: wifi.BandUnk},
			"nogps-unk",
			16,
			[]Category{CategoryESSID, CategoryBSSID, CategoryOUI, CategoryBand, CategoryPlace},
		},
		{
			"no place key skips place scoring",
			wifi.Keys{ESSID: "A", BSSID: "de:ad:be:ef:00:01", OUI: "de:ad:be", Band: "2.4"},
			"",
			6,
			[]Category{CategoryESSID, CategoryBSSID, CategoryOUI, CategoryBand},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(NewState(), weights)
			aw := s.RecordEvent(tt.keys, tt.place)
			if aw.XP != tt.wantXP {
				t.Errorf("XP = %d, want %d", aw.XP, tt.wantXP)
			}
			if len(aw.Categories) != len(tt.wantCats) {
				t.Fatalf("Categories = %v, want %v", aw.Categories, tt.wantCats)
			}
			for i, c := range aw.Categories {
				if c != tt.wantCats[i] {
					t.Errorf("Categories[%d] = %q, want %q", i, c, tt.wantCats[i])
				}
			}
		})
	}
}

func TestSentinelNeverStored(t *testing.T) {
	s := NewStore(NewState(), DefaultWeights())
	s.RecordEvent(wifi.Keys{ESSID: wifi.SentinelUnknown, BSSID: wifi.SentinelUnknown, Band: "2.4"}, "nogps-2.4")

	snap := s.Snapshot()
	if _, ok := snap.SeenESSIDs[wifi.SentinelUnknown]; ok {
		t.Error("sentinel leaked into SeenESSIDs")
	}
	if _, ok := snap.SeenBSSIDs[wifi.SentinelUnknown]; ok {
		t.Error("sentinel leaked into SeenBSSIDs")
	}
	if len(snap.SeenOUIs) != 0 {
		t.Errorf("SeenOUIs = %v, want empty", snap.SeenOUIs)
	}
}

func TestZeroWeightStillTracksNovelty(t *testing.T) {
	s := NewStore(NewState(), Weights{})
	aw := s.RecordEvent(wifi.Keys{ESSID: "A", BSSID: "de:ad:be:ef:00:01", OUI: "de:ad:be", Band: "5"}, "p1")
	if aw.XP != 0 {
		t.Errorf("XP = %d, want 0", aw.XP)
	}
	if !aw.Novel() {
		t.Error("zero-weight firsts must still register as novel")
	}
	if got := s.Totals(); got.ESSIDs != 1 || got.BSSIDs != 1 || got.Places != 1 {
		t.Errorf("Totals() = %+v, want sets grown", got)
	}
}

func TestLastPlaceTracksNewPlacesOnly(t *testing.T) {
	s := NewStore(NewState(), DefaultWeights())
	k := wifi.Keys{ESSID: "A", BSSID: "de:ad:be:ef:00:01", OUI: "de:ad:be", Band: "5"}

	if got := s.LastPlace(); got != "" {
		t.Errorf("LastPlace before any place = %q, want empty", got)
	}

	s.RecordEvent(k, "p1")
	s.RecordEvent(k, "p2")
	if got := s.LastPlace(); got != "p2" {
		t.Errorf("LastPlace = %q, want %q", got, "p2")
	}

	// Revisiting p1 must not roll LastPlace back.
	s.RecordEvent(k, "p1")
	if got := s.LastPlace(); got != "p2" {
		t.Errorf("LastPlace after revisit = %q, want %q", got, "p2")
	}
	if got := s.Totals().LastPlace; got != "p2" {
		t.Errorf("Totals().LastPlace = %q, want %q", got, "p2")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := NewStore(NewState(), DefaultWeights())
	s.RecordEvent(wifi.Keys{ESSID: "A", BSSID: "de:ad:be:ef:00:01", OUI: "de:ad:be", Band: "5"}, "p1")

	snap := s.Snapshot()
	s.RecordEvent(wifi.Keys{ESSID: "B", BSSID: "de:ad:be:ef:00:02", OUI: "de:ad:be", Band: "2.4"}, "p2")

	if len(snap.SeenESSIDs) != 1 || snap.TotalXP != 16 {
		t.Errorf("snapshot mutated by later events: %d essids, %d xp", len(snap.SeenESSIDs), snap.TotalXP)
	}
}

func TestConcurrentEventsAwardOnce(t *testing.T) {
	s := NewStore(NewState(), DefaultWeights())
	keys := wifi.Keys{ESSID: "A", BSSID: "de:ad:be:ef:00:01", OUI: "de:ad:be", Band: "5"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RecordEvent(keys, "p1")
		}()
	}
	wg.Wait()

	// 2 essid + 1 bssid + 1 oui + 2 band + 10 place, exactly once.
	if got := s.TotalXP(); got != 16 {
		t.Errorf("TotalXP() = %d, want 16", got)
	}
}

func TestLedgerSumsFirstOccurrences(t *testing.T) {
	s := NewStore(NewState(), DefaultWeights())

	want := 0
	for i := 0; i < 10; i++ {
		keys := wifi.Keys{
			ESSID:   fmt.Sprintf("net-%d", i%3),
			BSSID:   fmt.Sprintf("de:ad:be:ef:00:%02d", i%5),
			OUI:     "de:ad:be",
			Band:    "5",
			Channel: 36,
		}
		aw := s.RecordEvent(keys, fmt.Sprintf("place-%d", i%2))
		want += aw.XP
	}

	// 3 essids*2 + 5 bssids*1 + 1 oui + 1 band + 2 places*10 = 34
	if want != 34 {
		t.Errorf("summed awards = %d, want 34", want)
	}
	if got := s.TotalXP(); got != want {
		t.Errorf("TotalXP() = %d, want %d", got, want)
	}
}
