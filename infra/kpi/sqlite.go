// Package kpi persists per-driver daily performance history. The in-memory
// driver stats are rolled into this store at the day boundary before they
// reset.
package kpi

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one driver's performance for one day.
type Record struct {
	DriverID   string    `json:"driver_id"`
	Day        time.Time `json:"day"`
	Trips      int       `json:"trips"`
	Miles      float64   `json:"miles"`
	OnTimeRate float64   `json:"on_time_rate"` // percentage, 0-100
}

// Day truncates t to UTC midnight.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SQLiteStore persists daily driver stats in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS driver_stats (
        driver_id TEXT,
        day INTEGER,
        trips INTEGER,
        miles REAL,
        on_time_rate REAL,
        PRIMARY KEY(driver_id, day)
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Add inserts or updates the record for the driver's day.
func (s *SQLiteStore) Add(r Record) error {
	d := Day(r.Day)
	_, err := s.db.Exec(`INSERT INTO driver_stats (driver_id, day, trips, miles, on_time_rate)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(driver_id, day) DO UPDATE SET
            trips = trips + excluded.trips,
            miles = miles + excluded.miles,
            on_time_rate = excluded.on_time_rate`,
		r.DriverID, d.Unix(), r.Trips, r.Miles, r.OnTimeRate)
	return err
}

// Query returns records in the range [start,end] for the driver.
func (s *SQLiteStore) Query(driverID string, start, end time.Time) ([]Record, error) {
	start = Day(start)
	end = Day(end)
	rows, err := s.db.Query(`SELECT driver_id, day, trips, miles, on_time_rate
        FROM driver_stats WHERE driver_id = ? AND day >= ? AND day <= ? ORDER BY day`,
		driverID, start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Record
	for rows.Next() {
		var (
			rec   Record
			ts    int64
			miles float64
		)
		if err := rows.Scan(&rec.DriverID, &ts, &rec.Trips, &miles, &rec.OnTimeRate); err != nil {
			return nil, err
		}
		rec.Day = time.Unix(ts, 0).UTC()
		rec.Miles = miles
		res = append(res, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
