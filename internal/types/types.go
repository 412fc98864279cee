package types

import "time"

// Location is a WGS84 coordinate pair from a GPS fix
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DiscoveryEvent is one observed access point, reported by the host once
// per captured handshake
type DiscoveryEvent struct {
	ESSID    string    `json:"essid,omitempty"`
	BSSID    string    `json:"bssid,omitempty"`
	Band     string    `json:"band,omitempty"`
	Channel  int       `json:"channel,omitempty"`
	Location *Location `json:"location,omitempty"`
	SeenAt   time.Time `json:"seen_at"`
}

// AwardResult reports what an event earned
type AwardResult struct {
	XP         int      `json:"xp"`
	Categories []string `json:"categories,omitempty"`
	NewPlace   bool     `json:"new_place"`
	Place      string   `json:"place,omitempty"`
	TotalXP    int      `json:"total_xp"`
	Title      string   `json:"title"`
	Level      int      `json:"level"`
	LeveledUp  bool     `json:"leveled_up"`
}

// StatusUpdate is the display payload for status consumers and SSE
type StatusUpdate struct {
	Text      string    `json:"text"`
	Bar       string    `json:"bar,omitempty"`
	Title     string    `json:"title"`
	Level     int       `json:"level"`
	TotalXP   int       `json:"total_xp"`
	Places    int       `json:"places"`
	ESSIDs    int       `json:"essids"`
	BSSIDs    int       `json:"bssids"`
	OUIs      int       `json:"ouis"`
	Bands     int       `json:"bands"`
	LastPlace string    `json:"last_place,omitempty"`
	Anchor    Anchor    `json:"anchor"`
	BarAnchor Anchor    `json:"bar_anchor"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Anchor is a display placement hint on the host screen
type Anchor struct {
	X int `json:"x"`
	Y int `json:"y"`
}
