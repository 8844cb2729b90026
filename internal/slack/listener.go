package slack

import (
	"context"
	"time"

	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"ingestion-service/internal/logging"
	"ingestion-service/internal/models"
)

// Handler receives the live events the listener cares about, already
// converted to the validated ingress record.
type Handler interface {
	HandleMention(ctx context.Context, msg models.Message) error
	HandleMessage(ctx context.Context, msg models.Message) error
	HandleMemberJoined(ctx context.Context, userID, channelID string) error
}

// Listener owns the socket-mode subscription. Per-event handler errors are
// logged without tearing the subscription down; a transport failure triggers
// a reconnect after a fixed back-off. The listener only stops on shutdown.
type Listener struct {
	client  *Client
	handler Handler
	logger  *logging.Logger
	backoff time.Duration
	ack     func(ctx context.Context, envelopeID string) error
}

func NewListener(client *Client, handler Handler, logger *logging.Logger, backoff time.Duration) *Listener {
	return &Listener{
		client:  client,
		handler: handler,
		logger:  logger,
		backoff: backoff,
		ack: func(ctx context.Context, envelopeID string) error {
			return client.socket.AckCtx(ctx, envelopeID, nil)
		},
	}
}

// Run consumes socket-mode events until ctx is cancelled, reconnecting on
// connection-level failures.
func (l *Listener) Run(ctx context.Context) {
	go l.consumeEvents(ctx)

	for {
		if err := l.client.socket.RunContext(ctx); err != nil && ctx.Err() == nil {
			l.logger.Errorf("Live subscription failed, reconnecting in %s: %v", l.backoff, err)
		}

		select {
		case <-ctx.Done():
			l.logger.Infof("Live event listener stopped")
			return
		case <-time.After(l.backoff):
		}
	}
}

func (l *Listener) consumeEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-l.client.socket.Events:
			l.handleEnvelope(ctx, evt)
		}
	}
}

// handleEnvelope acks an events-API envelope before looking at its payload;
// an unacked envelope is redelivered by the platform indefinitely, and a
// payload this process cannot decode will not decode better next time.
func (l *Listener) handleEnvelope(ctx context.Context, evt socketmode.Event) {
	if evt.Type != socketmode.EventTypeEventsAPI {
		return
	}

	if evt.Request != nil {
		if err := l.ack(ctx, evt.Request.EnvelopeID); err != nil {
			l.logger.Errorf("Failed to ack event %s: %v", evt.Request.EnvelopeID, err)
		}
	}

	eventsAPI, ok := evt.Data.(slackevents.EventsAPIEvent)
	if !ok {
		l.logger.Warnf("Dropping events-API envelope with unexpected payload type %T", evt.Data)
		return
	}

	if err := l.dispatch(ctx, eventsAPI); err != nil {
		l.logger.Errorf("Failed to handle event: %v", err)
	}
}

func (l *Listener) dispatch(ctx context.Context, event slackevents.EventsAPIEvent) error {
	if event.Type != slackevents.CallbackEvent {
		return nil
	}

	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.AppMentionEvent:
		return l.handler.HandleMention(ctx, models.Message{
			ChannelID: ev.Channel,
			UserID:    ev.User,
			Text:      ev.Text,
			TS:        ev.TimeStamp,
			ThreadTS:  ev.ThreadTimeStamp,
		})

	case *slackevents.MessageEvent:
		// Edited/deleted/system messages are out of scope; bot_message is the
		// one subtype carrying activity payloads.
		if ev.SubType != "" && ev.SubType != "bot_message" {
			return nil
		}
		return l.handler.HandleMessage(ctx, models.Message{
			ChannelID: ev.Channel,
			UserID:    ev.User,
			BotID:     ev.BotID,
			BotName:   ev.Username,
			Text:      ev.Text,
			TS:        ev.TimeStamp,
			ThreadTS:  ev.ThreadTimeStamp,
		})

	case *slackevents.MemberJoinedChannelEvent:
		return l.handler.HandleMemberJoined(ctx, ev.User, ev.Channel)
	}

	return nil
}
