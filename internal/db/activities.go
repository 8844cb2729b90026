package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"ingestion-service/internal/models"
)

// CreateActivity inserts a new activity record and returns it with its
// generated identifier. A non-nil ParentID must reference an existing row.
func (d *DB) CreateActivity(ctx context.Context, a models.Activity) (models.Activity, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	query := `
	INSERT INTO activities (id, team_id, channel_id, kind, status, content, ts, parent_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING created_at`

	err := d.Pool.QueryRow(ctx, query,
		a.ID,
		a.TeamID,
		a.ChannelID,
		a.Kind,
		a.Status,
		a.Content,
		a.Timestamp,
		a.ParentID,
	).Scan(&a.CreatedAt)
	if err != nil {
		return models.Activity{}, fmt.Errorf("failed to insert activity (ts=%s) for channel %s: %w",
			models.TimeToTS(a.Timestamp), a.ChannelID, err)
	}

	return a, nil
}

// GetActivitiesByChannel fetches a channel's activities in ascending
// timestamp order with pagination.
func (d *DB) GetActivitiesByChannel(ctx context.Context, channelID string, limit, offset int) ([]models.Activity, int, error) {
	countQ := `SELECT COUNT(*) FROM activities WHERE channel_id = $1`

	var total int
	if err := d.Pool.QueryRow(ctx, countQ, channelID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count activities: %w", err)
	}

	query := `
	SELECT id, team_id, channel_id, kind, status, content, ts, parent_id, created_at
	FROM activities
	WHERE channel_id = $1
	ORDER BY ts
	LIMIT $2 OFFSET $3`

	rows, err := d.Pool.Query(ctx, query, channelID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get activities for channel %s: %w", channelID, err)
	}
	defer rows.Close()

	var list []models.Activity
	for rows.Next() {
		var a models.Activity
		err := rows.Scan(
			&a.ID,
			&a.TeamID,
			&a.ChannelID,
			&a.Kind,
			&a.Status,
			&a.Content,
			&a.Timestamp,
			&a.ParentID,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan activity: %w", err)
		}
		list = append(list, a)
	}

	return list, total, nil
}

// GetActivityReplies fetches the child activities of a parent in ascending
// timestamp order.
func (d *DB) GetActivityReplies(ctx context.Context, parentID uuid.UUID) ([]models.Activity, error) {
	query := `
	SELECT id, team_id, channel_id, kind, status, content, ts, parent_id, created_at
	FROM activities
	WHERE parent_id = $1
	ORDER BY ts`

	rows, err := d.Pool.Query(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get replies for activity %s: %w", parentID, err)
	}
	defer rows.Close()

	var list []models.Activity
	for rows.Next() {
		var a models.Activity
		err := rows.Scan(
			&a.ID,
			&a.TeamID,
			&a.ChannelID,
			&a.Kind,
			&a.Status,
			&a.Content,
			&a.Timestamp,
			&a.ParentID,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		list = append(list, a)
	}

	return list, nil
}
