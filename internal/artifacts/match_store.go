package artifacts

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/Alias1177/MatchScout/models"

	_ "modernc.org/sqlite"
)

const matchColumns = `seq, date, home_team, away_team, home_score, away_score, mirrored, result,
	t1_skill, t2_skill, skill_gap, t1_op, t1_ds, t2_op, t2_ds,
	t1_sop, t1_sds, t2_sop, t2_sds, dominance`

// openMatchStore opens the processed match database, creating the tables
// when they do not exist yet.
func openMatchStore(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS processed_matches (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			seq        INTEGER NOT NULL,
			date       TEXT    NOT NULL,
			home_team  TEXT    NOT NULL,
			away_team  TEXT    NOT NULL,
			home_score INTEGER NOT NULL,
			away_score INTEGER NOT NULL,
			mirrored   INTEGER NOT NULL,
			result     INTEGER NOT NULL,

			t1_skill   REAL,
			t2_skill   REAL,
			skill_gap  REAL,
			t1_op      REAL,
			t1_ds      REAL,
			t2_op      REAL,
			t2_ds      REAL,
			t1_sop     REAL,
			t1_sds     REAL,
			t2_sop     REAL,
			t2_sds     REAL,
			dominance  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pm_order ON processed_matches(date, seq, mirrored)`,
		`CREATE TABLE IF NOT EXISTS schema_meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}
	return db, nil
}

// writeMatches replaces the database at path with rows and meta.
func writeMatches(path string, rows []models.FeatureRow, meta map[string]string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove old match store: %w", err)
	}
	db, err := openMatchStore(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO processed_matches (` + matchColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		mirrored := 0
		if r.Mirrored {
			mirrored = 1
		}
		_, err := stmt.Exec(
			r.Seq, r.Date.UTC().Format(time.RFC3339), r.HomeTeam, r.AwayTeam, r.HomeScore, r.AwayScore,
			mirrored, int(r.Result),
			r.T1Skill, r.T2Skill, r.SkillGap, r.T1OP, r.T1DS, r.T2OP, r.T2DS,
			r.T1SOP, r.T1SDS, r.T2SOP, r.T2SDS, r.Dominance,
		)
		if err != nil {
			return fmt.Errorf("insert match %d: %w", r.Seq, err)
		}
	}
	for k, v := range meta {
		if _, err := tx.Exec(`INSERT INTO schema_meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("insert meta %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// readMatches loads every processed row ordered by (date, seq, mirrored).
func readMatches(path string) ([]models.FeatureRow, map[string]string, error) {
	db, err := openMatchStore(path)
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	rs, err := db.Query(`SELECT ` + matchColumns + ` FROM processed_matches ORDER BY date, seq, mirrored`)
	if err != nil {
		return nil, nil, fmt.Errorf("query matches: %w", err)
	}
	defer rs.Close()

	var rows []models.FeatureRow
	for rs.Next() {
		var r models.FeatureRow
		var date string
		var mirrored, result int
		if err := rs.Scan(
			&r.Seq, &date, &r.HomeTeam, &r.AwayTeam, &r.HomeScore, &r.AwayScore, &mirrored, &result,
			&r.T1Skill, &r.T2Skill, &r.SkillGap, &r.T1OP, &r.T1DS, &r.T2OP, &r.T2DS,
			&r.T1SOP, &r.T1SDS, &r.T2SOP, &r.T2SDS, &r.Dominance,
		); err != nil {
			return nil, nil, fmt.Errorf("scan match: %w", err)
		}
		if r.Date, err = time.Parse(time.RFC3339, date); err != nil {
			return nil, nil, fmt.Errorf("match %d: bad date %q: %w", r.Seq, date, err)
		}
		r.Mirrored = mirrored != 0
		r.Result = models.Outcome(result)
		rows = append(rows, r)
	}
	if err := rs.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate matches: %w", err)
	}
	rs.Close()

	meta := make(map[string]string)
	mr, err := db.Query(`SELECT key, value FROM schema_meta`)
	if err != nil {
		return nil, nil, fmt.Errorf("query meta: %w", err)
	}
	defer mr.Close()
	for mr.Next() {
		var k, v string
		if err := mr.Scan(&k, &v); err != nil {
			return nil, nil, fmt.Errorf("scan meta: %w", err)
		}
		meta[k] = v
	}
	return rows, meta, mr.Err()
}
