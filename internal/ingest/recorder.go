package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"ingestion-service/internal/logging"
	"ingestion-service/internal/models"
)

// ActivityStore persists classified activities.
type ActivityStore interface {
	CreateActivity(ctx context.Context, a models.Activity) (models.Activity, error)
}

// Publisher emits a persisted activity to an external event stream.
type Publisher interface {
	Publish(ctx context.Context, a models.Activity) error
}

// AlertNotifier forwards ALERT activities to an external notification target.
type AlertNotifier interface {
	NotifyAlert(ctx context.Context, a models.Activity) error
}

// Broadcaster fans a persisted activity out to live feed subscribers.
type Broadcaster interface {
	Broadcast(a models.Activity)
}

// Recorder is the single write path shared by both ingestion paths: classify,
// persist, then fan out. Fan-out failures are logged, never propagated; only
// the persistence result decides success.
type Recorder struct {
	store     ActivityStore
	logger    *logging.Logger
	publisher Publisher
	notifier  AlertNotifier
	feed      Broadcaster
}

// NewRecorder constructs a Recorder. publisher, notifier, and feed may be nil
// when the corresponding surface is not configured.
func NewRecorder(store ActivityStore, logger *logging.Logger, publisher Publisher, notifier AlertNotifier, feed Broadcaster) *Recorder {
	return &Recorder{
		store:     store,
		logger:    logger,
		publisher: publisher,
		notifier:  notifier,
		feed:      feed,
	}
}

// Record classifies msg and persists it as an activity owned by teamID.
// A non-nil parentID links the activity as a thread reply of an already
// persisted parent.
func (r *Recorder) Record(ctx context.Context, teamID uuid.UUID, msg models.Message, parentID *uuid.UUID) (models.Activity, error) {
	kind, status := Classify(msg)

	ts, err := models.TSToTime(msg.TS)
	if err != nil {
		return models.Activity{}, fmt.Errorf("recording activity for channel %s: %w", msg.ChannelID, err)
	}

	activity := models.Activity{
		TeamID:    teamID,
		ChannelID: msg.ChannelID,
		Kind:      kind,
		Status:    status,
		Content:   msg.Text,
		Timestamp: ts,
		ParentID:  parentID,
	}

	created, err := r.store.CreateActivity(ctx, activity)
	if err != nil {
		return models.Activity{}, err
	}

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, created); err != nil {
			r.logger.Errorf("Failed to publish activity %s: %v", created.ID, err)
		}
	}
	if r.notifier != nil && created.Kind == models.ActivityKindAlert {
		if err := r.notifier.NotifyAlert(ctx, created); err != nil {
			r.logger.Errorf("Failed to forward alert %s: %v", created.ID, err)
		}
	}
	if r.feed != nil {
		r.feed.Broadcast(created)
	}

	return created, nil
}
