package title

import (
	"reflect"
	"testing"
)

func TestForXP(t *testing.T) {
	two := NewBook(map[int]string{0: "Homebody", 200: "Wanderling"})

	tests := []struct {
		name string
		book *Book
		xp   int
		want string
	}{
		{"zero xp", two, 0, "Homebody"},
		{"just below threshold", two, 199, "Homebody"},
		{"at threshold", two, 200, "Wanderling"},
		{"above top", two, 5000, "Wanderling"},

		// Stock ladder
		{"default base", DefaultBook(), 0, "Homebody"},
		{"default mid", DefaultBook(), 600, "City Stroller"},
		{"default below top", DefaultBook(), 4799, "Jetsetter"},
		{"default top", DefaultBook(), 4800, "Globetrotter"},

		// Custom set without a zero threshold falls back to the base title
		{"no zero tier below", NewBook(map[int]string{100: "Nomad"}), 50, "Homebody"},
		{"no zero tier at", NewBook(map[int]string{100: "Nomad"}), 100, "Nomad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.book.ForXP(tt.xp); got != tt.want {
				t.Errorf("ForXP(%d) = %q, want %q", tt.xp, got, tt.want)
			}
		})
	}
}

func TestLevel(t *testing.T) {
	book := DefaultBook()

	tests := []struct {
		xp   int
		want int
	}{
		{0, 0},
		{199, 0},
		{200, 1},
		{599, 1},
		{600, 2},
		{1200, 3},
		{2400, 4},
		{4800, 5},
		{100000, 5},
	}

	for _, tt := range tests {
		if got := book.Level(tt.xp); got != tt.want {
			t.Errorf("Level(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
}

func TestBounds(t *testing.T) {
	book := DefaultBook()

	tests := []struct {
		name  string
		xp    int
		prev  int
		next  int
		atMax bool
	}{
		{"base tier", 0, 0, 200, false},
		{"below first step", 199, 0, 200, false},
		{"second tier", 200, 200, 600, false},
		{"last step", 4799, 2400, 4800, false},
		{"top tier", 4800, 4800, 0, true},
		{"above top", 99999, 4800, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev, next, atMax := book.Bounds(tt.xp)
			if prev != tt.prev || next != tt.next || atMax != tt.atMax {
				t.Errorf("Bounds(%d) = (%d, %d, %v), want (%d, %d, %v)",
					tt.xp, prev, next, atMax, tt.prev, tt.next, tt.atMax)
			}
		})
	}
}

func TestNewBookNormalizes(t *testing.T) {
	book := NewBook(map[int]string{600: "Far", 200: "Near", -5: "Bogus"})

	want := []Tier{{0, "Homebody"}, {200, "Near"}, {600, "Far"}}
	if got := book.Tiers(); !reflect.DeepEqual(got, want) {
		t.Errorf("Tiers() = %v, want %v", got, want)
	}
}
