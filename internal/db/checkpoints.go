package db

import (
	"context"
	"fmt"

	"ingestion-service/internal/models"
)

// GetOrCreateCheckpoint returns the checkpoint row for a channel, creating it
// at timestamp 0 on first access.
func (d *DB) GetOrCreateCheckpoint(ctx context.Context, channelID string) (models.ChannelCheckpoint, error) {
	// The no-op conflict arm makes RETURNING yield the existing row.
	query := `
	INSERT INTO channel_checkpoints (channel_id)
	VALUES ($1)
	ON CONFLICT (channel_id) DO UPDATE
	SET channel_id = EXCLUDED.channel_id
	RETURNING channel_id, last_ts, updated_at`

	var cp models.ChannelCheckpoint
	err := d.Pool.QueryRow(ctx, query, channelID).Scan(&cp.ChannelID, &cp.LastTS, &cp.UpdatedAt)
	if err != nil {
		return models.ChannelCheckpoint{}, fmt.Errorf("failed to get checkpoint for channel %s: %w", channelID, err)
	}

	return cp, nil
}

// AdvanceCheckpoint moves a channel's checkpoint forward to ts. The stored
// value never regresses: GREATEST keeps the current value when ts is smaller.
func (d *DB) AdvanceCheckpoint(ctx context.Context, channelID string, ts float64) error {
	query := `
	UPDATE channel_checkpoints
	SET last_ts = GREATEST(last_ts, $2), updated_at = NOW()
	WHERE channel_id = $1`

	tag, err := d.Pool.Exec(ctx, query, channelID, ts)
	if err != nil {
		return fmt.Errorf("failed to advance checkpoint for channel %s: %w", channelID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("checkpoint for channel %s: %w", channelID, ErrNotFound)
	}
	return nil
}

// ResetCheckpoint forces a channel's checkpoint back to 0 so the next polling
// pass re-scans full history. Used only on an invalid-timestamp failure from
// the upstream history query.
func (d *DB) ResetCheckpoint(ctx context.Context, channelID string) error {
	query := `
	UPDATE channel_checkpoints
	SET last_ts = 0, updated_at = NOW()
	WHERE channel_id = $1`

	if _, err := d.Pool.Exec(ctx, query, channelID); err != nil {
		return fmt.Errorf("failed to reset checkpoint for channel %s: %w", channelID, err)
	}
	return nil
}
