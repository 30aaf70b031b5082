package store

import (
	"database/sql"
	"time"

	"matchworker/internal/scrape"
	"matchworker/logger"
	"matchworker/pkg/errors"

	_ "github.com/lib/pq"
)

// PostgresStore implements Store on postgres via lib/pq
type PostgresStore struct {
	db  *sql.DB
	log *logger.Logger
}

// NewPostgresStore connects to postgres and verifies the connection
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, errors.NewStorage("connect", "failed to open database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.NewStorage("connect", "failed to ping database", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresStore{
		db:  db,
		log: logger.ForStore(),
	}, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS fixtures (
		match_id BIGINT PRIMARY KEY,
		kickoff_utc TIMESTAMPTZ NOT NULL,
		status TEXT,
		round_name TEXT,
		home_team_id BIGINT,
		home_team_name TEXT,
		away_team_id BIGINT,
		away_team_name TEXT,
		home_score INT,
		away_score INT,
		referee_name TEXT,
		venue_name TEXT,
		scraped_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS match_minutes (
		match_id BIGINT NOT NULL,
		minute INT NOT NULL,
		possession_home DOUBLE PRECISION,
		possession_away DOUBLE PRECISION,
		rating_home DOUBLE PRECISION,
		rating_away DOUBLE PRECISION,
		total_shots_home DOUBLE PRECISION,
		total_shots_away DOUBLE PRECISION,
		pass_success_home DOUBLE PRECISION,
		pass_success_away DOUBLE PRECISION,
		dribbles_home DOUBLE PRECISION,
		dribbles_away DOUBLE PRECISION,
		aerial_won_home DOUBLE PRECISION,
		aerial_won_away DOUBLE PRECISION,
		tackles_home DOUBLE PRECISION,
		tackles_away DOUBLE PRECISION,
		corners_home DOUBLE PRECISION,
		corners_away DOUBLE PRECISION,
		scraped_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (match_id, minute)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_fixtures_kickoff ON fixtures (kickoff_utc)`,
}

// Migrate creates the schema when it does not exist yet
func (s *PostgresStore) Migrate() error {
	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return errors.NewStorage("migrate", "migration failed", err)
		}
	}
	s.log.Info().Msg("Schema up to date")
	return nil
}

// UpsertFixture inserts or updates one fixture row
func (s *PostgresStore) UpsertFixture(fixture scrape.FixtureRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO fixtures (
			match_id, kickoff_utc, status, round_name,
			home_team_id, home_team_name, away_team_id, away_team_name,
			home_score, away_score, referee_name, venue_name, scraped_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (match_id) DO UPDATE SET
			kickoff_utc = EXCLUDED.kickoff_utc,
			status = EXCLUDED.status,
			round_name = EXCLUDED.round_name,
			home_team_id = EXCLUDED.home_team_id,
			home_team_name = EXCLUDED.home_team_name,
			away_team_id = EXCLUDED.away_team_id,
			away_team_name = EXCLUDED.away_team_name,
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			referee_name = EXCLUDED.referee_name,
			venue_name = EXCLUDED.venue_name,
			scraped_at = EXCLUDED.scraped_at`,
		fixture.MatchID, fixture.KickoffUTC, fixture.Status, fixture.RoundName,
		fixture.HomeTeamID, fixture.HomeTeamName, fixture.AwayTeamID, fixture.AwayTeamName,
		fixture.HomeScore, fixture.AwayScore, fixture.RefereeName, fixture.VenueName, fixture.ScrapedAt,
	)
	if err != nil {
		return errors.NewStorage("upsert_fixture", "failed to upsert fixture", err)
	}
	return nil
}

// UpsertMinuteRecords inserts or updates the per-minute rows of a match in
// one transaction
func (s *PostgresStore) UpsertMinuteRecords(records []scrape.MinuteRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errors.NewStorage("upsert_minutes", "failed to begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO match_minutes (
			match_id, minute,
			possession_home, possession_away, rating_home, rating_away,
			total_shots_home, total_shots_away, pass_success_home, pass_success_away,
			dribbles_home, dribbles_away, aerial_won_home, aerial_won_away,
			tackles_home, tackles_away, corners_home, corners_away, scraped_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (match_id, minute) DO UPDATE SET
			possession_home = EXCLUDED.possession_home,
			possession_away = EXCLUDED.possession_away,
			rating_home = EXCLUDED.rating_home,
			rating_away = EXCLUDED.rating_away,
			total_shots_home = EXCLUDED.total_shots_home,
			total_shots_away = EXCLUDED.total_shots_away,
			pass_success_home = EXCLUDED.pass_success_home,
			pass_success_away = EXCLUDED.pass_success_away,
			dribbles_home = EXCLUDED.dribbles_home,
			dribbles_away = EXCLUDED.dribbles_away,
			aerial_won_home = EXCLUDED.aerial_won_home,
			aerial_won_away = EXCLUDED.aerial_won_away,
			tackles_home = EXCLUDED.tackles_home,
			tackles_away = EXCLUDED.tackles_away,
			corners_home = EXCLUDED.corners_home,
			corners_away = EXCLUDED.corners_away,
			scraped_at = EXCLUDED.scraped_at`)
	if err != nil {
		return errors.NewStorage("upsert_minutes", "failed to prepare statement", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.Exec(
			r.MatchID, r.Minute,
			r.PossessionHome, r.PossessionAway, r.RatingHome, r.RatingAway,
			r.TotalShotsHome, r.TotalShotsAway, r.PassSuccessHome, r.PassSuccessAway,
			r.DribblesHome, r.DribblesAway, r.AerialWonHome, r.AerialWonAway,
			r.TacklesHome, r.TacklesAway, r.CornersHome, r.CornersAway, r.ScrapedAt,
		)
		if err != nil {
			return errors.NewStorage("upsert_minutes", "failed to upsert minute row", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorage("upsert_minutes", "failed to commit transaction", err)
	}
	return nil
}

// Close releases the database pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
