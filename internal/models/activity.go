package models

import (
	"time"

	"github.com/google/uuid"
)

type ActivityKind string

const (
	ActivityKindAlert       ActivityKind = "ALERT"
	ActivityKindBotMessage  ActivityKind = "BOT_MESSAGE"
	ActivityKindHumanThread ActivityKind = "HUMAN_THREAD"
)

type ActivityStatus string

const (
	ActivityStatusFired     ActivityStatus = "FIRED"
	ActivityStatusDebugging ActivityStatus = "DEBUGGING"
	ActivityStatusMitigated ActivityStatus = "MITIGATED"
	ActivityStatusOngoing   ActivityStatus = "ONGOING"
	ActivityStatusResolved  ActivityStatus = "RESOLVED"
)

// Activity is one tracked unit of conversation. A non-nil ParentID marks a
// thread reply; the parent row always exists before any of its children.
type Activity struct {
	ID        uuid.UUID      `json:"id"`
	TeamID    uuid.UUID      `json:"team_id"`
	ChannelID string         `json:"channel_id"`
	Kind      ActivityKind   `json:"kind"`
	Status    ActivityStatus `json:"status"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	ParentID  *uuid.UUID     `json:"parent_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ChannelCheckpoint records the newest platform timestamp already processed
// for a channel by the polling loop. Zero means "scan full history".
type ChannelCheckpoint struct {
	ChannelID string    `json:"channel_id"`
	LastTS    float64   `json:"last_ts"`
	UpdatedAt time.Time `json:"updated_at"`
}
