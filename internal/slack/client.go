package slack

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"

	"ingestion-service/internal/models"
)

// ErrInvalidTimestamp signals that the platform rejected the checkpoint
// timestamp used to bound a history query. The caller is expected to reset
// the channel's checkpoint and re-scan full history on the next pass.
var ErrInvalidTimestamp = errors.New("invalid history timestamp")

// Client wraps the Slack web API and the socket-mode connection behind the
// capability surface the ingestion paths consume.
type Client struct {
	botUserID string
	api       *slack.Client
	socket    *socketmode.Client
	pageSize  int
}

// New validates the tokens against the platform and returns a ready client.
// An auth failure here is fatal to starting the ingestion paths.
func New(ctx context.Context, botToken, appToken string, pageSize int) (*Client, error) {
	api := slack.New(botToken, slack.OptionAppLevelToken(appToken))

	authTest, err := api.AuthTestContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("slack auth test failed: %w", err)
	}

	return &Client{
		botUserID: authTest.UserID,
		api:       api,
		socket:    socketmode.New(api),
		pageSize:  pageSize,
	}, nil
}

// BotUserID returns the bot's own user identifier.
func (c *Client) BotUserID() string {
	return c.botUserID
}

// GetChannelInfo returns the display name of a channel.
func (c *Client) GetChannelInfo(ctx context.Context, channelID string) (string, error) {
	info, err := c.api.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{
		ChannelID: channelID,
	})
	if err != nil {
		return "", fmt.Errorf("getting channel info for channel %s: %w", channelID, err)
	}
	return info.Name, nil
}

// ListMessages fetches a channel's messages newer than since (full history
// when since is 0), paginating with cursors and returning them in ascending
// timestamp order. The oldest bound is exclusive so the message the caller's
// checkpoint points at is never returned again.
func (c *Client) ListMessages(ctx context.Context, channelID string, since float64) ([]models.Message, error) {
	params := &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Limit:     c.pageSize,
	}
	if since > 0 {
		params.Oldest = strconv.FormatFloat(since, 'f', 6, 64)
	}

	var messages []models.Message
	for {
		history, err := c.api.GetConversationHistoryContext(ctx, params)
		if err != nil {
			if isInvalidTimestampErr(err) {
				return nil, fmt.Errorf("listing messages for channel %s: %w", channelID, ErrInvalidTimestamp)
			}
			return nil, fmt.Errorf("listing messages for channel %s: %w", channelID, err)
		}

		for _, msg := range history.Messages {
			messages = append(messages, fromHistoryMessage(channelID, msg))
		}

		if !history.HasMore {
			break
		}
		params.Cursor = history.ResponseMetadata.Cursor
	}

	sort.Slice(messages, func(i, j int) bool { return messages[i].TS < messages[j].TS })
	return messages, nil
}

// ListThreadReplies fetches the replies of a thread in ascending timestamp
// order, excluding the parent message itself.
func (c *Client) ListThreadReplies(ctx context.Context, channelID, parentTS string) ([]models.Message, error) {
	params := &slack.GetConversationRepliesParameters{
		ChannelID: channelID,
		Timestamp: parentTS,
	}

	var messages []models.Message
	for {
		replies, hasMore, nextCursor, err := c.api.GetConversationRepliesContext(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("listing thread replies for channel %s (ts=%s): %w", channelID, parentTS, err)
		}

		for _, msg := range replies {
			// The platform returns the parent as the first element.
			if msg.Timestamp == parentTS {
				continue
			}
			messages = append(messages, fromHistoryMessage(channelID, msg))
		}

		if !hasMore {
			break
		}
		params.Cursor = nextCursor
	}

	sort.Slice(messages, func(i, j int) bool { return messages[i].TS < messages[j].TS })
	return messages, nil
}

// PostMessage posts text to a channel, optionally pinned to a thread.
func (c *Client) PostMessage(ctx context.Context, channelID, text, threadTS string) error {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}

	if _, _, err := c.api.PostMessageContext(ctx, channelID, opts...); err != nil {
		return fmt.Errorf("posting message to channel %s: %w", channelID, err)
	}
	return nil
}

func isInvalidTimestampErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "invalid_ts_oldest") || strings.Contains(msg, "invalid_ts_latest")
}

// fromHistoryMessage converts a platform wire message into the validated
// ingress record used by both ingestion paths.
func fromHistoryMessage(channelID string, msg slack.Message) models.Message {
	botName := msg.Username
	if msg.BotProfile != nil && msg.BotProfile.Name != "" {
		botName = msg.BotProfile.Name
	}

	return models.Message{
		ChannelID:  channelID,
		UserID:     msg.User,
		BotID:      msg.BotID,
		BotName:    botName,
		Text:       msg.Text,
		TS:         msg.Timestamp,
		ThreadTS:   msg.ThreadTimestamp,
		ReplyCount: msg.ReplyCount,
	}
}
