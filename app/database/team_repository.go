package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TeamRepository handles database operations for tracked teams
type TeamRepository struct {
	db *DB
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// UpsertTeam inserts or updates a team configuration snapshot by name.
func (r *TeamRepository) UpsertTeam(team Team) (string, error) {
	existing, err := r.GetTeam(team.Name)
	if err != nil {
		return "", fmt.Errorf("failed to check existing team: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)

	if existing != nil {
		_, err = r.db.Exec(`
			UPDATE teams
			SET team_id = ?, league = ?, sport = ?, channel_id = ?, enabled = ?, lookahead_days = ?, updated_at = ?
			WHERE name = ?
		`, team.TeamID, team.League, team.Sport, team.ChannelID, team.Enabled, team.LookaheadDays, now, team.Name)
		if err != nil {
			return "", fmt.Errorf("failed to update team: %w", err)
		}
		return existing.ID, nil
	}

	id := uuid.NewString()
	_, err = r.db.Exec(`
		INSERT INTO teams (id, name, team_id, league, sport, channel_id, enabled, lookahead_days, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, team.Name, team.TeamID, team.League, team.Sport, team.ChannelID, team.Enabled, team.LookaheadDays, now, now)
	if err != nil {
		return "", fmt.Errorf("failed to insert team: %w", err)
	}

	return id, nil
}

// GetTeam retrieves a team by its configuration name.
func (r *TeamRepository) GetTeam(name string) (*Team, error) {
	var team Team
	var createdAt, updatedAt string

	err := r.db.QueryRow(`
		SELECT id, name, team_id, league, sport, channel_id, enabled, lookahead_days, created_at, updated_at
		FROM teams
		WHERE name = ?
	`, name).Scan(
		&team.ID, &team.Name, &team.TeamID, &team.League, &team.Sport, &team.ChannelID,
		&team.Enabled, &team.LookaheadDays, &createdAt, &updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	team.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	team.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &team, nil
}

// ListTeams returns all tracked teams ordered by name.
func (r *TeamRepository) ListTeams() ([]Team, error) {
	rows, err := r.db.Query(`
		SELECT id, name, team_id, league, sport, channel_id, enabled, lookahead_days, created_at, updated_at
		FROM teams
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		var team Team
		var createdAt, updatedAt string
		err := rows.Scan(
			&team.ID, &team.Name, &team.TeamID, &team.League, &team.Sport, &team.ChannelID,
			&team.Enabled, &team.LookaheadDays, &createdAt, &updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		team.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		team.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		teams = append(teams, team)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team rows: %w", err)
	}

	return teams, nil
}

// GetTeamCount returns the total number of tracked teams
func (r *TeamRepository) GetTeamCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM teams").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get team count: %w", err)
	}
	return count, nil
}
