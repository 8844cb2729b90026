package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ingestion-service/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		msg        models.Message
		wantKind   models.ActivityKind
		wantStatus models.ActivityStatus
	}{
		{
			name:       "alert keyword",
			msg:        models.Message{BotID: "B1", Text: "[ALERT] disk usage above 90%"},
			wantKind:   models.ActivityKindAlert,
			wantStatus: models.ActivityStatusFired,
		},
		{
			name:       "alert keyword is case insensitive",
			msg:        models.Message{UserID: "U1", Text: "this looks like an alert to me"},
			wantKind:   models.ActivityKindAlert,
			wantStatus: models.ActivityStatusFired,
		},
		{
			name:       "bot message without keyword",
			msg:        models.Message{BotID: "B1", Text: "deploy finished"},
			wantKind:   models.ActivityKindBotMessage,
			wantStatus: models.ActivityStatusOngoing,
		},
		{
			name:       "human message",
			msg:        models.Message{UserID: "U1", Text: "anyone looking at this?"},
			wantKind:   models.ActivityKindHumanThread,
			wantStatus: models.ActivityStatusOngoing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, status := Classify(tt.msg)
			require.Equal(t, tt.wantKind, kind)
			require.Equal(t, tt.wantStatus, status)
		})
	}
}

func TestShouldPersist(t *testing.T) {
	monitored := []string{"PagerBot", "DeployBot"}

	tests := []struct {
		name string
		msg  models.Message
		want bool
	}{
		{name: "monitored bot", msg: models.Message{BotID: "B1", BotName: "PagerBot"}, want: true},
		{name: "unmonitored bot", msg: models.Message{BotID: "B2", BotName: "SpamBot"}, want: false},
		{name: "bot without profile name", msg: models.Message{BotID: "B3"}, want: false},
		{name: "human", msg: models.Message{UserID: "U1", BotName: "PagerBot"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ShouldPersist(tt.msg, monitored))
		})
	}

	t.Run("empty monitored list persists nothing", func(t *testing.T) {
		require.False(t, ShouldPersist(models.Message{BotID: "B1", BotName: "PagerBot"}, nil))
	})
}
