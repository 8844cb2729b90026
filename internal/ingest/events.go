package ingest

import (
	"context"
	"errors"

	"ingestion-service/internal/db"
	"ingestion-service/internal/logging"
	"ingestion-service/internal/models"
)

const greeting = "Thanks for inviting me! Mention me and say \"assist\" to register this channel for activity tracking."

// ChannelRegistry looks up registered channels for the live path.
type ChannelRegistry interface {
	GetChannel(ctx context.Context, channelID string) (models.Channel, error)
}

// Onboarder is the onboarding dialog the live path drives for unregistered
// channels.
type Onboarder interface {
	StartOrPrompt(ctx context.Context, channelID, threadTS string) error
	HandleMessage(ctx context.Context, msg models.Message) (bool, error)
}

// Poster posts outbound replies to the platform.
type Poster interface {
	PostMessage(ctx context.Context, channelID, text, threadTS string) error
}

// EventProcessor applies live platform events: onboarding for unregistered
// channels, and the shared classify/persist path for registered ones. The
// live path never expands threads; backfilling replies is the polling loop's
// job.
type EventProcessor struct {
	registry   ChannelRegistry
	onboarding Onboarder
	recorder   *Recorder
	poster     Poster
	botUserID  string
	logger     *logging.Logger
}

func NewEventProcessor(registry ChannelRegistry, onboarding Onboarder, recorder *Recorder, poster Poster, botUserID string, logger *logging.Logger) *EventProcessor {
	return &EventProcessor{
		registry:   registry,
		onboarding: onboarding,
		recorder:   recorder,
		poster:     poster,
		botUserID:  botUserID,
		logger:     logger,
	}
}

// HandleMention reacts to the bot being mentioned. In an unregistered channel
// it starts (or re-prompts) the onboarding dialog, pinned to the mention's
// thread; in a registered channel mentions are ignored.
func (p *EventProcessor) HandleMention(ctx context.Context, msg models.Message) error {
	_, err := p.registry.GetChannel(ctx, msg.ChannelID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return err
	}

	threadTS := msg.ThreadTS
	if threadTS == "" {
		threadTS = msg.TS
	}

	return p.onboarding.StartOrPrompt(ctx, msg.ChannelID, threadTS)
}

// HandleMessage routes a live message: first to an active onboarding session
// pinned to the same thread, otherwise through the persistence filter of a
// registered channel. Unregistered channels without a session are ignored.
func (p *EventProcessor) HandleMessage(ctx context.Context, msg models.Message) error {
	handled, err := p.onboarding.HandleMessage(ctx, msg)
	if handled || err != nil {
		return err
	}

	ch, err := p.registry.GetChannel(ctx, msg.ChannelID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		return err
	}

	if !ShouldPersist(msg, ch.MonitoredAccounts) {
		return nil
	}

	_, err = p.recorder.Record(ctx, ch.TeamID, msg, nil)
	return err
}

// HandleMemberJoined greets a channel when the bot itself is invited.
func (p *EventProcessor) HandleMemberJoined(ctx context.Context, userID, channelID string) error {
	if userID != p.botUserID {
		return nil
	}
	return p.poster.PostMessage(ctx, channelID, greeting, "")
}
