package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Alias1177/MatchScout/models"

	_ "github.com/lib/pq"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the parameters as a lib/pq connection string.
func (p ConnectionParams) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode,
	)
}

// New creates a new database connection
func New(ctx context.Context, params ConnectionParams) (*DB, error) {
	db, err := sql.Open("postgres", params.DSN())
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	// Create tables if they don't exist
	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS scout_reports (
			id           TEXT PRIMARY KEY,
			team_a       TEXT NOT NULL,
			team_b       TEXT NOT NULL,
			schema_name  TEXT NOT NULL,
			p_team_a_win DOUBLE PRECISION NOT NULL,
			p_draw       DOUBLE PRECISION NOT NULL,
			p_team_b_win DOUBLE PRECISION NOT NULL,
			percents     TEXT,
			insight      TEXT,
			reasoning    TEXT,
			degraded     BOOLEAN NOT NULL DEFAULT FALSE,
			created_at   TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create scout_reports: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_scout_reports_created_at ON scout_reports (created_at DESC)
	`)
	return err
}

// SaveReport records a served report
func (db *DB) SaveReport(ctx context.Context, r *models.ScoutReport) error {
	p := r.Prediction.Probabilities
	_, err := db.ExecContext(ctx, `
		INSERT INTO scout_reports (
			id, team_a, team_b, schema_name, p_team_a_win, p_draw, p_team_b_win,
			percents, insight, reasoning, degraded, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`,
		r.ID, r.Prediction.TeamA, r.Prediction.TeamB, r.Prediction.Schema,
		p.TeamAWin(), p.Draw(), p.TeamBWin(),
		r.Percents, r.Insight, r.Reasoning, r.Degraded, r.GeneratedAt)
	if err != nil {
		return fmt.Errorf("insert report %s: %w", r.ID, err)
	}
	return nil
}

// ReportSummary is one row of the report history.
type ReportSummary struct {
	ID            string               `json:"id"`
	TeamA         string               `json:"team_a"`
	TeamB         string               `json:"team_b"`
	Probabilities models.Probabilities `json:"probabilities"`
	Degraded      bool                 `json:"degraded"`
	CreatedAt     time.Time            `json:"created_at"`
}

// RecentReports returns the latest reports, newest first
func (db *DB) RecentReports(ctx context.Context, limit int) ([]ReportSummary, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, team_a, team_b, p_team_b_win, p_draw, p_team_a_win, degraded, created_at
		FROM scout_reports
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReportSummary
	for rows.Next() {
		var s ReportSummary
		if err := rows.Scan(
			&s.ID, &s.TeamA, &s.TeamB,
			&s.Probabilities[models.AwayWin], &s.Probabilities[models.Draw], &s.Probabilities[models.HomeWin],
			&s.Degraded, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
