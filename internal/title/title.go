package title

import "sort"

// baseName applies below the lowest configured threshold
const baseName = "Homebody"

// Tier is one rung of the progression ladder
type Tier struct {
	Threshold int
	Name      string
}

// Book resolves XP totals to traveler titles. Tiers are kept sorted by
// threshold ascending and always include a zero threshold.
type Book struct {
	tiers []Tier
}

// DefaultBook returns the stock progression ladder
func DefaultBook() *Book {
	return NewBook(map[int]string{
		0:    "Homebody",
		200:  "Wanderling",
		600:  "City Stroller",
		1200: "Road Warrior",
		2400: "Jetsetter",
		4800: "Globetrotter",
	})
}

// NewBook builds a Book from threshold/title pairs, sorting thresholds
// ascending. A set without a zero threshold gains the default base title
// so every XP total resolves to something. Negative thresholds are ignored.
func NewBook(titles map[int]string) *Book {
	b := &Book{tiers: make([]Tier, 0, len(titles)+1)}
	if _, ok := titles[0]; !ok {
		b.tiers = append(b.tiers, Tier{0, baseName})
	}
	for threshold, name := range titles {
		if threshold < 0 {
			continue
		}
		b.tiers = append(b.tiers, Tier{threshold, name})
	}
	sort.Slice(b.tiers, func(i, j int) bool { return b.tiers[i].Threshold < b.tiers[j].Threshold })
	return b
}

// ForXP returns the title of the highest tier at or below xp
func (b *Book) ForXP(xp int) string {
	name := baseName
	for _, t := range b.tiers {
		if xp < t.Threshold {
			break
		}
		name = t.Name
	}
	return name
}

// Level returns the zero-based index of the tier ForXP resolves to
func (b *Book) Level(xp int) int {
	level := 0
	for i, t := range b.tiers {
		if xp < t.Threshold {
			break
		}
		level = i
	}
	return level
}

// Bounds returns the thresholds surrounding xp, for progress display.
// atMax reports xp at or above the top tier, where next is meaningless.
func (b *Book) Bounds(xp int) (prev, next int, atMax bool) {
	for _, t := range b.tiers {
		if xp < t.Threshold {
			return prev, t.Threshold, false
		}
		prev = t.Threshold
	}
	return prev, 0, true
}

// Tiers returns the ladder in ascending threshold order
func (b *Book) Tiers() []Tier {
	return append([]Tier(nil), b.tiers...)
}
