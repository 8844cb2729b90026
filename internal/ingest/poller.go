package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ingestion-service/internal/logging"
	"ingestion-service/internal/models"
	"ingestion-service/internal/slack"
)

// Registry lists the channels eligible for polling.
type Registry interface {
	ListChannels(ctx context.Context) ([]models.Channel, error)
	UpdateChannelName(ctx context.Context, channelID, name string) error
}

// CheckpointStore tracks per-channel ingestion progress.
type CheckpointStore interface {
	GetOrCreateCheckpoint(ctx context.Context, channelID string) (models.ChannelCheckpoint, error)
	AdvanceCheckpoint(ctx context.Context, channelID string, ts float64) error
	ResetCheckpoint(ctx context.Context, channelID string) error
}

// Platform is the slice of the messaging platform the poller consumes.
type Platform interface {
	GetChannelInfo(ctx context.Context, channelID string) (string, error)
	ListMessages(ctx context.Context, channelID string, since float64) ([]models.Message, error)
	ListThreadReplies(ctx context.Context, channelID, parentTS string) ([]models.Message, error)
}

// Poller is the backfill ingestion loop. Every interval it walks all
// registered channels, ingests messages newer than each channel's checkpoint,
// and advances the checkpoint. One channel failing never aborts the others;
// an outer failure backs off longer and retries. The loop only stops on
// shutdown.
type Poller struct {
	registry    Registry
	checkpoints CheckpointStore
	platform    Platform
	recorder    *Recorder
	logger      *logging.Logger

	interval time.Duration
	backoff  time.Duration
}

// NewPoller constructs a Poller.
func NewPoller(registry Registry, checkpoints CheckpointStore, platform Platform, recorder *Recorder, logger *logging.Logger, interval, backoff time.Duration) *Poller {
	return &Poller{
		registry:    registry,
		checkpoints: checkpoints,
		platform:    platform,
		recorder:    recorder,
		logger:      logger,
		interval:    interval,
		backoff:     backoff,
	}
}

// Run executes polling passes until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Infof("Polling loop started (interval %s)", p.interval)
	for {
		sleep := p.interval
		if err := p.pass(ctx); err != nil {
			p.logger.Errorf("Polling pass failed, backing off %s: %v", p.backoff, err)
			sleep = p.backoff
		}

		select {
		case <-ctx.Done():
			p.logger.Infof("Polling loop stopped")
			return
		case <-time.After(sleep):
		}
	}
}

// pass ingests every registered channel once. Per-channel errors are handled
// here; only a failure to enumerate channels is reported to the caller.
func (p *Poller) pass(ctx context.Context) error {
	channels, err := p.registry.ListChannels(ctx)
	if err != nil {
		return fmt.Errorf("listing channels: %w", err)
	}

	for _, ch := range channels {
		if err := p.ingestChannel(ctx, ch); err != nil {
			if errors.Is(err, slack.ErrInvalidTimestamp) {
				p.logger.Warnf("Checkpoint for channel %s rejected upstream, resetting: %v", ch.ChannelID, err)
				if resetErr := p.checkpoints.ResetCheckpoint(ctx, ch.ChannelID); resetErr != nil {
					p.logger.Errorf("Failed to reset checkpoint for channel %s: %v", ch.ChannelID, resetErr)
				}
				continue
			}
			p.logger.Errorf("Failed to ingest channel %s: %v", ch.ChannelID, err)
		}

		if ctx.Err() != nil {
			return nil
		}
	}

	return nil
}

// ingestChannel processes one channel's messages since its checkpoint, in
// ascending timestamp order, expanding threads so every parent activity is
// created before its children. On success the checkpoint advances to the
// newest timestamp seen; on error it is left unchanged.
func (p *Poller) ingestChannel(ctx context.Context, ch models.Channel) error {
	cp, err := p.checkpoints.GetOrCreateCheckpoint(ctx, ch.ChannelID)
	if err != nil {
		return err
	}

	// Refresh the stored display name; drift here is not worth failing a pass.
	if name, infoErr := p.platform.GetChannelInfo(ctx, ch.ChannelID); infoErr != nil {
		p.logger.Warnf("Failed to fetch channel info for %s: %v", ch.ChannelID, infoErr)
	} else if name != "" && name != ch.Name {
		if updErr := p.registry.UpdateChannelName(ctx, ch.ChannelID, name); updErr != nil {
			p.logger.Warnf("Failed to update name for channel %s: %v", ch.ChannelID, updErr)
		}
	}

	messages, err := p.platform.ListMessages(ctx, ch.ChannelID, cp.LastTS)
	if err != nil {
		return err
	}

	newest := cp.LastTS
	for _, msg := range messages {
		ts, err := msg.EpochTS()
		if err != nil {
			p.logger.Errorf("Skipping message with bad timestamp in channel %s: %v", ch.ChannelID, err)
			continue
		}
		// anything at or below the checkpoint was handled by an earlier pass
		if ts <= cp.LastTS {
			continue
		}
		if ts > newest {
			newest = ts
		}

		if !ShouldPersist(msg, ch.MonitoredAccounts) {
			continue
		}

		parent, err := p.recorder.Record(ctx, ch.TeamID, msg, nil)
		if err != nil {
			return err
		}

		if msg.HasThread() {
			replies, err := p.platform.ListThreadReplies(ctx, ch.ChannelID, msg.TS)
			if err != nil {
				return err
			}

			// Replies are persisted regardless of author once the parent is.
			for _, reply := range replies {
				rts, err := reply.EpochTS()
				if err != nil {
					p.logger.Errorf("Skipping reply with bad timestamp in channel %s: %v", ch.ChannelID, err)
					continue
				}
				if rts > newest {
					newest = rts
				}

				if _, err := p.recorder.Record(ctx, ch.TeamID, reply, &parent.ID); err != nil {
					return err
				}
			}
		}
	}

	if newest > cp.LastTS {
		if err := p.checkpoints.AdvanceCheckpoint(ctx, ch.ChannelID, newest); err != nil {
			return err
		}
	}

	return nil
}
