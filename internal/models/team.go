package models

import (
	"time"

	"github.com/google/uuid"
)

// Team groups one or more monitored channels under a single tenant.
// Its channel-id set is append-only; channels are never detached.
type Team struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	ChannelIDs []string  `json:"channel_ids"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Channel is one monitored conversation surface on the messaging platform.
// MonitoredAccounts is the allow-list of bot display names whose messages
// are persisted as activities; it is replaced wholesale on each update.
type Channel struct {
	ChannelID         string    `json:"channel_id"`
	Name              string    `json:"name"`
	TeamID            uuid.UUID `json:"team_id"`
	MonitoredAccounts []string  `json:"monitored_accounts"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
