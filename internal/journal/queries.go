package journal

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Session queries

// StartSession opens a new session row for this daemon run
func (db *DB) StartSession() (*Session, error) {
	s := &Session{ID: uuid.NewString(), StartedAt: time.Now().UTC()}
	_, err := db.Exec(`
		INSERT INTO sessions (id, started_at) VALUES (?, ?)`,
		s.ID, s.StartedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// EndSession stamps the session's end time
func (db *DB) EndSession(id string) error {
	_, err := db.Exec("UPDATE sessions SET ended_at = ? WHERE id = ?", time.Now().UTC(), id)
	return err
}

// GetSession retrieves a session by ID
func (db *DB) GetSession(id string) (*Session, error) {
	row := db.QueryRow("SELECT id, started_at, ended_at FROM sessions WHERE id = ?", id)

	var s Session
	var endedAt sql.NullTime
	if err := row.Scan(&s.ID, &s.StartedAt, &endedAt); err != nil {
		return nil, err
	}
	if endedAt.Valid {
		s.EndedAt = &endedAt.Time
	}
	return &s, nil
}

// Discovery queries

// RecordDiscovery appends one awarding event to the ledger
func (db *DB) RecordDiscovery(d *Discovery) (*Discovery, error) {
	categoriesJSON, _ := json.Marshal(d.Categories)

	result, err := db.Exec(`
		INSERT INTO discoveries (session_id, observed_at, essid, bssid, band, place, categories, xp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.SessionID, d.ObservedAt, d.ESSID, d.BSSID, d.Band, d.Place, string(categoriesJSON), d.XP,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetDiscovery(id)
}

// GetDiscovery retrieves a discovery by ID
func (db *DB) GetDiscovery(id int64) (*Discovery, error) {
	row := db.QueryRow(`
		SELECT id, session_id, observed_at, essid, bssid, band, place, categories, xp
		FROM discoveries WHERE id = ?`, id)
	return scanDiscovery(row)
}

// RecentDiscoveries returns the newest awarding events first
func (db *DB) RecentDiscoveries(limit int) ([]*Discovery, error) {
	rows, err := db.Query(`
		SELECT id, session_id, observed_at, essid, bssid, band, place, categories, xp
		FROM discoveries ORDER BY observed_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var discoveries []*Discovery
	for rows.Next() {
		d, err := scanDiscoveryRow(rows)
		if err != nil {
			return nil, err
		}
		discoveries = append(discoveries, d)
	}
	return discoveries, rows.Err()
}

// CountDiscoveries returns the total number of journaled awards
func (db *DB) CountDiscoveries() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM discoveries").Scan(&count)
	return count, err
}

func scanDiscovery(row *sql.Row) (*Discovery, error) {
	var d Discovery
	var categoriesJSON string

	err := row.Scan(&d.ID, &d.SessionID, &d.ObservedAt, &d.ESSID, &d.BSSID,
		&d.Band, &d.Place, &categoriesJSON, &d.XP)
	if err != nil {
		return nil, err
	}

	json.Unmarshal([]byte(categoriesJSON), &d.Categories)
	return &d, nil
}

func scanDiscoveryRow(rows *sql.Rows) (*Discovery, error) {
	var d Discovery
	var categoriesJSON string

	err := rows.Scan(&d.ID, &d.SessionID, &d.ObservedAt, &d.ESSID, &d.BSSID,
		&d.Band, &d.Place, &categoriesJSON, &d.XP)
	if err != nil {
		return nil, err
	}

	json.Unmarshal([]byte(categoriesJSON), &d.Categories)
	return &d, nil
}

// TitleUnlock queries

// RecordUnlock stores a title threshold crossing
func (db *DB) RecordUnlock(u *TitleUnlock) (*TitleUnlock, error) {
	result, err := db.Exec(`
		INSERT INTO title_unlocks (session_id, unlocked_at, level, title, total_xp)
		VALUES (?, ?, ?, ?, ?)`,
		u.SessionID, u.UnlockedAt, u.Level, u.Title, u.TotalXP,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	u.ID = id
	return u, nil
}

// ListUnlocks returns the newest unlocks first
func (db *DB) ListUnlocks(limit int) ([]*TitleUnlock, error) {
	rows, err := db.Query(`
		SELECT id, session_id, unlocked_at, level, title, total_xp
		FROM title_unlocks ORDER BY unlocked_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var unlocks []*TitleUnlock
	for rows.Next() {
		var u TitleUnlock
		if err := rows.Scan(&u.ID, &u.SessionID, &u.UnlockedAt, &u.Level, &u.Title, &u.TotalXP); err != nil {
			return nil, err
		}
		unlocks = append(unlocks, &u)
	}
	return unlocks, rows.Err()
}

// Tally queries

// AddDailyTally folds one award into the day's aggregate row
func (db *DB) AddDailyTally(date time.Time, discoveries, xpGained, newPlaces int) error {
	dateStr := date.Format("2006-01-02")
	_, err := db.Exec(`
		INSERT INTO daily_tallies (date, discoveries, xp_gained, new_places)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			discoveries = discoveries + excluded.discoveries,
			xp_gained = xp_gained + excluded.xp_gained,
			new_places = new_places + excluded.new_places`,
		dateStr, discoveries, xpGained, newPlaces,
	)
	return err
}

// RecentTallies returns daily aggregates for the last n days, newest first
func (db *DB) RecentTallies(days int) ([]*DailyTally, error) {
	cutoff := time.Now().AddDate(0, 0, -days).Format("2006-01-02")
	rows, err := db.Query(`
		SELECT date, discoveries, xp_gained, new_places
		FROM daily_tallies WHERE date >= ? ORDER BY date DESC`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tallies []*DailyTally
	for rows.Next() {
		var t DailyTally
		if err := rows.Scan(&t.Date, &t.Discoveries, &t.XPGained, &t.NewPlaces); err != nil {
			return nil, err
		}
		tallies = append(tallies, &t)
	}
	return tallies, rows.Err()
}

// CleanupOldData removes journal rows older than the retention period.
// Title unlocks are milestones and survive retention.
func (db *DB) CleanupOldData(retentionDays int) error {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	_, err := db.Exec("DELETE FROM discoveries WHERE observed_at < ?", cutoff)
	if err != nil {
		return err
	}

	_, err = db.Exec("DELETE FROM daily_tallies WHERE date < ?", cutoff.Format("2006-01-02"))
	if err != nil {
		return err
	}

	// Ended sessions with no surviving discoveries are noise.
	_, err = db.Exec(`
		DELETE FROM sessions
		WHERE ended_at IS NOT NULL AND ended_at < ?
		AND id NOT IN (SELECT DISTINCT session_id FROM discoveries)`, cutoff)
	return err
}
