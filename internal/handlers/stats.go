package handlers

import (
	"net/http"
	"time"
)

// StatsData is the /api/stats response
type StatsData struct {
	Totals      TotalsData       `json:"totals"`
	Discoveries []*DiscoveryData `json:"discoveries"`
	Unlocks     []*UnlockData    `json:"unlocks"`
	Tallies     []*TallyData     `json:"tallies"`
}

// TotalsData summarizes lifetime progression
type TotalsData struct {
	ESSIDs    int    `json:"essids"`
	BSSIDs    int    `json:"bssids"`
	OUIs      int    `json:"ouis"`
	Bands     int    `json:"bands"`
	Places    int    `json:"places"`
	TotalXP   int    `json:"total_xp"`
	Title     string `json:"title"`
	Level     int    `json:"level"`
	LastPlace string `json:"last_place,omitempty"`
}

// DiscoveryData is one journaled awarding event
type DiscoveryData struct {
	ObservedAt time.Time `json:"observed_at"`
	ESSID      string    `json:"essid,omitempty"`
	BSSID      string    `json:"bssid,omitempty"`
	Band       string    `json:"band,omitempty"`
	Place      string    `json:"place,omitempty"`
	Categories []string  `json:"categories"`
	XP         int       `json:"xp"`
}

// UnlockData is one crossed title threshold
type UnlockData struct {
	UnlockedAt time.Time `json:"unlocked_at"`
	Level      int       `json:"level"`
	Title      string    `json:"title"`
	TotalXP    int       `json:"total_xp"`
}

// TallyData is one day's aggregate
type TallyData struct {
	Date        string `json:"date"`
	Discoveries int    `json:"discoveries"`
	XPGained    int    `json:"xp_gained"`
	NewPlaces   int    `json:"new_places"`
}

// Stats handles GET /api/stats: totals plus recent journal history
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	st := h.tracker.Status()
	data := StatsData{
		Totals: TotalsData{
			ESSIDs:    st.ESSIDs,
			BSSIDs:    st.BSSIDs,
			OUIs:      st.OUIs,
			Bands:     st.Bands,
			Places:    st.Places,
			TotalXP:   st.TotalXP,
			Title:     st.Title,
			Level:     st.Level,
			LastPlace: st.LastPlace,
		},
		Discoveries: []*DiscoveryData{},
		Unlocks:     []*UnlockData{},
		Tallies:     []*TallyData{},
	}

	// History sections stay empty when journaling is disabled
	if h.journal != nil {
		limit := queryInt(r, "limit", 20, 200)
		days := queryInt(r, "days", 7, 365)

		discoveries, err := h.journal.RecentDiscoveries(limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		for _, d := range discoveries {
			data.Discoveries = append(data.Discoveries, &DiscoveryData{
				ObservedAt: d.ObservedAt,
				ESSID:      d.ESSID,
				BSSID:      d.BSSID,
				Band:       d.Band,
				Place:      d.Place,
				Categories: d.Categories,
				XP:         d.XP,
			})
		}

		unlocks, err := h.journal.ListUnlocks(limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		for _, u := range unlocks {
			data.Unlocks = append(data.Unlocks, &UnlockData{
				UnlockedAt: u.UnlockedAt,
				Level:      u.Level,
				Title:      u.Title,
				TotalXP:    u.TotalXP,
			})
		}

		tallies, err := h.journal.RecentTallies(days)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		for _, tl := range tallies {
			data.Tallies = append(data.Tallies, &TallyData{
				Date:        tl.Date,
				Discoveries: tl.Discoveries,
				XPGained:    tl.XPGained,
				NewPlaces:   tl.NewPlaces,
			})
		}
	}

	writeJSON(w, http.StatusOK, data)
}
