package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"ingestion-service/internal/models"
)

// GetOrCreateChannel registers a channel, keyed by its external identifier.
// The insert is idempotent; a concurrent caller observes the committed row.
func (d *DB) GetOrCreateChannel(ctx context.Context, channelID, name string, teamID uuid.UUID) (models.Channel, error) {
	query := `
	INSERT INTO channels (channel_id, name, team_id)
	VALUES ($1, $2, $3)
	ON CONFLICT (channel_id) DO UPDATE
	SET name = EXCLUDED.name, updated_at = NOW()
	RETURNING channel_id, name, team_id, monitored_accounts, created_at, updated_at`

	var ch models.Channel
	err := d.Pool.QueryRow(ctx, query, channelID, name, teamID).Scan(
		&ch.ChannelID,
		&ch.Name,
		&ch.TeamID,
		&ch.MonitoredAccounts,
		&ch.CreatedAt,
		&ch.UpdatedAt,
	)
	if err != nil {
		return models.Channel{}, fmt.Errorf("failed to create channel %s: %w", channelID, err)
	}

	return ch, nil
}

// GetChannel retrieves a registered channel by its external identifier.
func (d *DB) GetChannel(ctx context.Context, channelID string) (models.Channel, error) {
	query := `
	SELECT channel_id, name, team_id, monitored_accounts, created_at, updated_at
	FROM channels
	WHERE channel_id = $1`

	var ch models.Channel
	err := d.Pool.QueryRow(ctx, query, channelID).Scan(
		&ch.ChannelID,
		&ch.Name,
		&ch.TeamID,
		&ch.MonitoredAccounts,
		&ch.CreatedAt,
		&ch.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Channel{}, fmt.Errorf("channel %s: %w", channelID, ErrNotFound)
	}
	if err != nil {
		return models.Channel{}, fmt.Errorf("failed to get channel %s: %w", channelID, err)
	}

	return ch, nil
}

// ListChannels returns all registered channels.
func (d *DB) ListChannels(ctx context.Context) ([]models.Channel, error) {
	query := `
	SELECT channel_id, name, team_id, monitored_accounts, created_at, updated_at
	FROM channels
	ORDER BY created_at`

	rows, err := d.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		var ch models.Channel
		err := rows.Scan(
			&ch.ChannelID,
			&ch.Name,
			&ch.TeamID,
			&ch.MonitoredAccounts,
			&ch.CreatedAt,
			&ch.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, ch)
	}

	return channels, nil
}

// SetMonitoredAccounts replaces a channel's monitored bot account list.
func (d *DB) SetMonitoredAccounts(ctx context.Context, channelID string, accounts []string) error {
	query := `
	UPDATE channels
	SET monitored_accounts = $2, updated_at = NOW()
	WHERE channel_id = $1`

	tag, err := d.Pool.Exec(ctx, query, channelID, accounts)
	if err != nil {
		return fmt.Errorf("failed to set monitored accounts for channel %s: %w", channelID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("channel %s: %w", channelID, ErrNotFound)
	}
	return nil
}

// UpdateChannelName refreshes the stored display name of a channel.
func (d *DB) UpdateChannelName(ctx context.Context, channelID, name string) error {
	query := `
	UPDATE channels
	SET name = $2, updated_at = NOW()
	WHERE channel_id = $1 AND name <> $2`

	if _, err := d.Pool.Exec(ctx, query, channelID, name); err != nil {
		return fmt.Errorf("failed to update name for channel %s: %w", channelID, err)
	}
	return nil
}
