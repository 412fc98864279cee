package journal

import "time"

// Session represents one daemon run
type Session struct {
	ID        string
	StartedAt time.Time
	EndedAt   *time.Time
}

// Discovery is one awarding event: an observation where at least one key
// was seen for the first time. Events that award nothing are not
// journaled.
type Discovery struct {
	ID         int64
	SessionID  string
	ObservedAt time.Time
	ESSID      string
	BSSID      string
	Band       string
	Place      string
	Categories []string // which dimensions were firsts
	XP         int
}

// TitleUnlock records crossing a title threshold
type TitleUnlock struct {
	ID         int64
	SessionID  string
	UnlockedAt time.Time
	Level      int
	Title      string
	TotalXP    int
}

// DailyTally is the per-day aggregate of awards
type DailyTally struct {
	Date        string // 2006-01-02
	Discoveries int
	XPGained    int
	NewPlaces   int
}
