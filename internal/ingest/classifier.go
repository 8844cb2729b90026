package ingest

import (
	"strings"

	"ingestion-service/internal/models"
)

// Classify maps a message to its activity kind and initial status. The text
// check wins over the author check, so a bot-posted alert is still an ALERT.
func Classify(msg models.Message) (models.ActivityKind, models.ActivityStatus) {
	if strings.Contains(strings.ToLower(msg.Text), "alert") {
		return models.ActivityKindAlert, models.ActivityStatusFired
	}
	if msg.FromBot() {
		return models.ActivityKindBotMessage, models.ActivityStatusOngoing
	}
	return models.ActivityKindHumanThread, models.ActivityStatusOngoing
}

// ShouldPersist reports whether a message qualifies as a top-level activity:
// it must carry a bot identity whose profile display name is in the channel's
// monitored-accounts list. Human messages never qualify; thread replies are
// persisted separately once their parent did.
func ShouldPersist(msg models.Message, monitoredAccounts []string) bool {
	if !msg.FromBot() || msg.BotName == "" {
		return false
	}
	for _, name := range monitoredAccounts {
		if name == msg.BotName {
			return true
		}
	}
	return false
}
