package ingest

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ingestion-service/internal/db"
	"ingestion-service/internal/logging"
	"ingestion-service/internal/models"
)

func newTestLogger() *logging.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &logging.Logger{Logger: l}
}

// fakeActivityStore implements ActivityStore in memory.
type fakeActivityStore struct {
	created   []models.Activity
	createErr error
}

func (f *fakeActivityStore) CreateActivity(ctx context.Context, a models.Activity) (models.Activity, error) {
	if f.createErr != nil {
		return models.Activity{}, f.createErr
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	f.created = append(f.created, a)
	return a, nil
}

// fakeRegistry implements Registry and ChannelRegistry.
type fakeRegistry struct {
	channels []models.Channel
	listErr  error
	renames  map[string]string
}

func (f *fakeRegistry) ListChannels(ctx context.Context) ([]models.Channel, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.channels, nil
}

func (f *fakeRegistry) UpdateChannelName(ctx context.Context, channelID, name string) error {
	if f.renames == nil {
		f.renames = make(map[string]string)
	}
	f.renames[channelID] = name
	return nil
}

func (f *fakeRegistry) GetChannel(ctx context.Context, channelID string) (models.Channel, error) {
	for _, ch := range f.channels {
		if ch.ChannelID == channelID {
			return ch, nil
		}
	}
	return models.Channel{}, db.ErrNotFound
}

// fakeCheckpoints implements CheckpointStore in memory with the same
// advance-to-max semantics as the database.
type fakeCheckpoints struct {
	lastTS map[string]float64
	resets []string
}

func newFakeCheckpoints() *fakeCheckpoints {
	return &fakeCheckpoints{lastTS: make(map[string]float64)}
}

func (f *fakeCheckpoints) GetOrCreateCheckpoint(ctx context.Context, channelID string) (models.ChannelCheckpoint, error) {
	return models.ChannelCheckpoint{ChannelID: channelID, LastTS: f.lastTS[channelID]}, nil
}

func (f *fakeCheckpoints) AdvanceCheckpoint(ctx context.Context, channelID string, ts float64) error {
	if ts > f.lastTS[channelID] {
		f.lastTS[channelID] = ts
	}
	return nil
}

func (f *fakeCheckpoints) ResetCheckpoint(ctx context.Context, channelID string) error {
	f.lastTS[channelID] = 0
	f.resets = append(f.resets, channelID)
	return nil
}

// fakePlatform implements Platform and Poster.
type fakePlatform struct {
	names    map[string]string
	messages map[string][]models.Message
	replies  map[string][]models.Message
	listErr  map[string]error
	posted   []postedMessage
}

type postedMessage struct {
	channelID string
	text      string
	threadTS  string
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		names:    make(map[string]string),
		messages: make(map[string][]models.Message),
		replies:  make(map[string][]models.Message),
		listErr:  make(map[string]error),
	}
}

func (f *fakePlatform) GetChannelInfo(ctx context.Context, channelID string) (string, error) {
	return f.names[channelID], nil
}

// ListMessages keeps the since bound inclusive so tests exercise the worst
// case of a platform returning the checkpoint message itself again.
func (f *fakePlatform) ListMessages(ctx context.Context, channelID string, since float64) ([]models.Message, error) {
	if err := f.listErr[channelID]; err != nil {
		return nil, err
	}
	var out []models.Message
	for _, msg := range f.messages[channelID] {
		ts, err := msg.EpochTS()
		if err != nil || ts >= since {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (f *fakePlatform) ListThreadReplies(ctx context.Context, channelID, parentTS string) ([]models.Message, error) {
	return f.replies[parentTS], nil
}

func (f *fakePlatform) PostMessage(ctx context.Context, channelID, text, threadTS string) error {
	f.posted = append(f.posted, postedMessage{channelID: channelID, text: text, threadTS: threadTS})
	return nil
}

// fakeOnboarder implements Onboarder.
type fakeOnboarder struct {
	started  []postedMessage
	consume  bool
	startErr error
}

func (f *fakeOnboarder) StartOrPrompt(ctx context.Context, channelID, threadTS string) error {
	f.started = append(f.started, postedMessage{channelID: channelID, threadTS: threadTS})
	return f.startErr
}

func (f *fakeOnboarder) HandleMessage(ctx context.Context, msg models.Message) (bool, error) {
	return f.consume, nil
}
