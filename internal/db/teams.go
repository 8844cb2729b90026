package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"ingestion-service/internal/models"
)

// GetOrCreateTeam resolves a team for the given name and channel. A team that
// already owns the channel wins over a name match; a name match gets the
// channel appended to its set; otherwise a new team owning exactly that
// channel is created. Safe to call concurrently for the same channel.
func (d *DB) GetOrCreateTeam(ctx context.Context, name, channelID string) (models.Team, error) {
	byChannel := `
	SELECT id, name, channel_ids, created_at, updated_at
	FROM teams
	WHERE $1 = ANY(channel_ids)`

	var team models.Team
	err := d.Pool.QueryRow(ctx, byChannel, channelID).Scan(
		&team.ID,
		&team.Name,
		&team.ChannelIDs,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if err == nil {
		return team, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.Team{}, fmt.Errorf("failed to look up team by channel %s: %w", channelID, err)
	}

	// Insert-or-fetch keyed on the unique name. The conflict arm appends the
	// channel id only when it is not already a member, so the set stays
	// duplicate-free under concurrent callers.
	upsert := `
	INSERT INTO teams (id, name, channel_ids)
	VALUES ($1, $2, ARRAY[$3])
	ON CONFLICT (name) DO UPDATE
	SET channel_ids = CASE
		WHEN teams.channel_ids @> ARRAY[$3] THEN teams.channel_ids
		ELSE array_append(teams.channel_ids, $3)
	END,
	    updated_at = NOW()
	RETURNING id, name, channel_ids, created_at, updated_at`

	err = d.Pool.QueryRow(ctx, upsert, uuid.New(), name, channelID).Scan(
		&team.ID,
		&team.Name,
		&team.ChannelIDs,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if err != nil {
		return models.Team{}, fmt.Errorf("failed to create team %s: %w", name, err)
	}

	return team, nil
}

// GetTeamByID retrieves a team by its identifier.
func (d *DB) GetTeamByID(ctx context.Context, id uuid.UUID) (models.Team, error) {
	query := `
	SELECT id, name, channel_ids, created_at, updated_at
	FROM teams
	WHERE id = $1`

	var team models.Team
	err := d.Pool.QueryRow(ctx, query, id).Scan(
		&team.ID,
		&team.Name,
		&team.ChannelIDs,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Team{}, fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Team{}, fmt.Errorf("failed to get team %s: %w", id, err)
	}

	return team, nil
}
