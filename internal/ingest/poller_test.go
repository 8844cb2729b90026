package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"ingestion-service/internal/models"
	"ingestion-service/internal/slack"
)

func newTestPoller(registry *fakeRegistry, checkpoints *fakeCheckpoints, platform *fakePlatform, store *fakeActivityStore) *Poller {
	logger := newTestLogger()
	recorder := NewRecorder(store, logger, nil, nil, nil)
	return NewPoller(registry, checkpoints, platform, recorder, logger, time.Minute, 5*time.Minute)
}

func TestPassIngestsMonitoredBotMessages(t *testing.T) {
	teamID := uuid.New()
	registry := &fakeRegistry{channels: []models.Channel{
		{ChannelID: "C1", Name: "ops", TeamID: teamID, MonitoredAccounts: []string{"PagerBot"}},
	}}
	platform := newFakePlatform()
	platform.messages["C1"] = []models.Message{
		{ChannelID: "C1", BotID: "B1", BotName: "PagerBot", Text: "ALERT: api down", TS: "100.000001"},
		{ChannelID: "C1", BotID: "B2", BotName: "SpamBot", Text: "ignore me", TS: "101.000001"},
		{ChannelID: "C1", UserID: "U1", Text: "on it", TS: "102.000001"},
	}
	checkpoints := newFakeCheckpoints()
	store := &fakeActivityStore{}

	p := newTestPoller(registry, checkpoints, platform, store)
	require.NoError(t, p.pass(context.Background()))

	require.Len(t, store.created, 1)
	created := store.created[0]
	require.Equal(t, models.ActivityKindAlert, created.Kind)
	require.Equal(t, models.ActivityStatusFired, created.Status)
	require.Equal(t, teamID, created.TeamID)
	require.Nil(t, created.ParentID)

	// the checkpoint covers everything seen, persisted or not
	require.Equal(t, 102.000001, checkpoints.lastTS["C1"])
}

func TestPassLinksThreadReplies(t *testing.T) {
	teamID := uuid.New()
	registry := &fakeRegistry{channels: []models.Channel{
		{ChannelID: "C1", TeamID: teamID, MonitoredAccounts: []string{"PagerBot"}},
	}}
	platform := newFakePlatform()
	platform.messages["C1"] = []models.Message{
		{ChannelID: "C1", BotID: "B1", BotName: "PagerBot", Text: "ALERT: db latency", TS: "100.000001", ReplyCount: 2},
	}
	platform.replies["100.000001"] = []models.Message{
		{ChannelID: "C1", UserID: "U1", Text: "looking", TS: "110.000001", ThreadTS: "100.000001"},
		{ChannelID: "C1", BotID: "B9", BotName: "OtherBot", Text: "graph attached", TS: "120.000001", ThreadTS: "100.000001"},
	}
	checkpoints := newFakeCheckpoints()
	store := &fakeActivityStore{}

	p := newTestPoller(registry, checkpoints, platform, store)
	require.NoError(t, p.pass(context.Background()))

	require.Len(t, store.created, 3)
	parent := store.created[0]
	require.Nil(t, parent.ParentID)

	// replies link to the parent and persist regardless of author
	for _, reply := range store.created[1:] {
		require.NotNil(t, reply.ParentID)
		require.Equal(t, parent.ID, *reply.ParentID)
	}
	require.Equal(t, models.ActivityKindHumanThread, store.created[1].Kind)
	require.Equal(t, models.ActivityKindBotMessage, store.created[2].Kind)

	// reply timestamps advance the checkpoint past the parent
	require.Equal(t, 120.000001, checkpoints.lastTS["C1"])
}

func TestPassIsolatesChannelFailures(t *testing.T) {
	teamID := uuid.New()
	registry := &fakeRegistry{channels: []models.Channel{
		{ChannelID: "C-broken", TeamID: teamID, MonitoredAccounts: []string{"PagerBot"}},
		{ChannelID: "C-ok", TeamID: teamID, MonitoredAccounts: []string{"PagerBot"}},
	}}
	platform := newFakePlatform()
	platform.listErr["C-broken"] = fmt.Errorf("conversations.history: rate_limited")
	platform.messages["C-ok"] = []models.Message{
		{ChannelID: "C-ok", BotID: "B1", BotName: "PagerBot", Text: "deploy done", TS: "200.000001"},
	}
	checkpoints := newFakeCheckpoints()
	store := &fakeActivityStore{}

	p := newTestPoller(registry, checkpoints, platform, store)
	require.NoError(t, p.pass(context.Background()))

	require.Len(t, store.created, 1)
	require.Equal(t, "C-ok", store.created[0].ChannelID)
	require.Equal(t, 200.000001, checkpoints.lastTS["C-ok"])
	require.Empty(t, checkpoints.resets)
}

func TestPassResetsCheckpointOnInvalidTimestamp(t *testing.T) {
	registry := &fakeRegistry{channels: []models.Channel{
		{ChannelID: "C1", TeamID: uuid.New()},
	}}
	platform := newFakePlatform()
	platform.listErr["C1"] = fmt.Errorf("conversations.history for channel C1: %w", slack.ErrInvalidTimestamp)
	checkpoints := newFakeCheckpoints()
	checkpoints.lastTS["C1"] = 999.5
	store := &fakeActivityStore{}

	p := newTestPoller(registry, checkpoints, platform, store)
	require.NoError(t, p.pass(context.Background()))

	require.Equal(t, []string{"C1"}, checkpoints.resets)
	require.Equal(t, 0.0, checkpoints.lastTS["C1"])
}

func TestPassReportsChannelListingFailure(t *testing.T) {
	registry := &fakeRegistry{listErr: errors.New("connection refused")}
	p := newTestPoller(registry, newFakeCheckpoints(), newFakePlatform(), &fakeActivityStore{})

	err := p.pass(context.Background())
	require.Error(t, err)
}

func TestPassSkipsMessagesWithBadTimestamps(t *testing.T) {
	teamID := uuid.New()
	registry := &fakeRegistry{channels: []models.Channel{
		{ChannelID: "C1", TeamID: teamID, MonitoredAccounts: []string{"PagerBot"}},
	}}
	platform := newFakePlatform()
	platform.messages["C1"] = []models.Message{
		{ChannelID: "C1", BotID: "B1", BotName: "PagerBot", Text: "mangled", TS: "not-a-ts"},
		{ChannelID: "C1", BotID: "B1", BotName: "PagerBot", Text: "fine", TS: "300.000001"},
	}
	checkpoints := newFakeCheckpoints()
	store := &fakeActivityStore{}

	p := newTestPoller(registry, checkpoints, platform, store)
	require.NoError(t, p.pass(context.Background()))

	require.Len(t, store.created, 1)
	require.Equal(t, "fine", store.created[0].Content)
	require.Equal(t, 300.000001, checkpoints.lastTS["C1"])
}

func TestPassRefreshesChannelName(t *testing.T) {
	registry := &fakeRegistry{channels: []models.Channel{
		{ChannelID: "C1", Name: "old-name", TeamID: uuid.New()},
	}}
	platform := newFakePlatform()
	platform.names["C1"] = "new-name"
	checkpoints := newFakeCheckpoints()

	p := newTestPoller(registry, checkpoints, platform, &fakeActivityStore{})
	require.NoError(t, p.pass(context.Background()))

	require.Equal(t, "new-name", registry.renames["C1"])
}

func TestRepeatedPassesPersistEachMessageOnce(t *testing.T) {
	teamID := uuid.New()
	registry := &fakeRegistry{channels: []models.Channel{
		{ChannelID: "C1", TeamID: teamID, MonitoredAccounts: []string{"PagerBot"}},
	}}
	platform := newFakePlatform()
	platform.messages["C1"] = []models.Message{
		{ChannelID: "C1", BotID: "B1", BotName: "PagerBot", Text: "ALERT: api down", TS: "100.000001"},
	}
	checkpoints := newFakeCheckpoints()
	store := &fakeActivityStore{}

	p := newTestPoller(registry, checkpoints, platform, store)

	// an idle channel must not re-persist the checkpoint message every pass
	for i := 0; i < 3; i++ {
		require.NoError(t, p.pass(context.Background()))
	}
	require.Len(t, store.created, 1)
	require.Equal(t, 100.000001, checkpoints.lastTS["C1"])

	// a genuinely new message still comes through on the next pass
	platform.messages["C1"] = append(platform.messages["C1"],
		models.Message{ChannelID: "C1", BotID: "B1", BotName: "PagerBot", Text: "ALERT: api still down", TS: "150.000001"})
	require.NoError(t, p.pass(context.Background()))
	require.Len(t, store.created, 2)
	require.Equal(t, "ALERT: api still down", store.created[1].Content)
	require.Equal(t, 150.000001, checkpoints.lastTS["C1"])
}

func TestPassLeavesCheckpointWhenNothingNew(t *testing.T) {
	registry := &fakeRegistry{channels: []models.Channel{
		{ChannelID: "C1", TeamID: uuid.New(), MonitoredAccounts: []string{"PagerBot"}},
	}}
	platform := newFakePlatform()
	checkpoints := newFakeCheckpoints()
	checkpoints.lastTS["C1"] = 500.25

	p := newTestPoller(registry, checkpoints, platform, &fakeActivityStore{})
	require.NoError(t, p.pass(context.Background()))

	require.Equal(t, 500.25, checkpoints.lastTS["C1"])
}
