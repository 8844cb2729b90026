package onboarding

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"ingestion-service/internal/logging"
	"ingestion-service/internal/models"
)

const (
	promptAssist = "Hi! I can start tracking this channel's activity. Reply with \"assist\" in this thread to begin onboarding."
	promptTeam   = "Great, let's get this channel registered. Which team does it belong to? Reply in this thread with the team name."
	promptBots   = "Which bot accounts should I monitor here? Reply with a comma-separated list of bot names."
)

// Registry is the team/channel registration surface the dialog mutates.
type Registry interface {
	GetOrCreateTeam(ctx context.Context, name, channelID string) (models.Team, error)
	GetOrCreateChannel(ctx context.Context, channelID, name string, teamID uuid.UUID) (models.Channel, error)
	SetMonitoredAccounts(ctx context.Context, channelID string, accounts []string) error
}

// Platform is the slice of the messaging platform the dialog consumes.
type Platform interface {
	GetChannelInfo(ctx context.Context, channelID string) (string, error)
	PostMessage(ctx context.Context, channelID, text, threadTS string) error
}

// Machine drives the per-channel onboarding dialog: a mention opens a session
// pinned to one thread, then same-thread replies walk it through collecting
// the team name and the monitored bot accounts. Completing the dialog is what
// makes a channel eligible for activity persistence.
type Machine struct {
	sessions *SessionStore
	registry Registry
	platform Platform
	logger   *logging.Logger
}

func NewMachine(sessions *SessionStore, registry Registry, platform Platform, logger *logging.Logger) *Machine {
	return &Machine{
		sessions: sessions,
		registry: registry,
		platform: platform,
		logger:   logger,
	}
}

// StartOrPrompt opens a session for an unregistered channel (pinned to
// threadTS) or re-prompts an existing one with its current step.
func (m *Machine) StartOrPrompt(ctx context.Context, channelID, threadTS string) error {
	sess := m.sessions.GetOrCreate(channelID, threadTS)

	var prompt string
	switch sess.Step {
	case StepAwaitingAssist:
		prompt = promptAssist
	case StepCollectingTeamName:
		prompt = promptTeam
	case StepCollectingBotAccounts:
		prompt = promptBots
	}

	return m.platform.PostMessage(ctx, channelID, prompt, sess.ThreadTS)
}

// HandleMessage feeds a message into the channel's dialog. It reports whether
// the message was consumed by an active session. Messages outside the pinned
// thread, bot-authored messages, and channels without a session are not
// consumed and cause no transition.
func (m *Machine) HandleMessage(ctx context.Context, msg models.Message) (bool, error) {
	sess, ok := m.sessions.Get(msg.ChannelID)
	if !ok {
		return false, nil
	}
	if msg.FromBot() {
		return false, nil
	}
	if msg.ThreadTS != sess.ThreadTS && msg.TS != sess.ThreadTS {
		return false, nil
	}

	switch sess.Step {
	case StepAwaitingAssist:
		if !strings.Contains(strings.ToLower(msg.Text), "assist") {
			return true, nil
		}
		sess.Step = StepCollectingTeamName
		return true, m.platform.PostMessage(ctx, msg.ChannelID, promptTeam, sess.ThreadTS)

	case StepCollectingTeamName:
		return true, m.collectTeamName(ctx, sess, msg)

	case StepCollectingBotAccounts:
		return true, m.collectBotAccounts(ctx, sess, msg)
	}

	return false, nil
}

func (m *Machine) collectTeamName(ctx context.Context, sess *Session, msg models.Message) error {
	teamName := strings.TrimSpace(msg.Text)

	team, err := m.registry.GetOrCreateTeam(ctx, teamName, sess.ChannelID)
	if err != nil {
		return fmt.Errorf("resolving team %q for channel %s: %w", teamName, sess.ChannelID, err)
	}

	channelName, err := m.platform.GetChannelInfo(ctx, sess.ChannelID)
	if err != nil {
		return fmt.Errorf("fetching channel info for %s: %w", sess.ChannelID, err)
	}

	if _, err := m.registry.GetOrCreateChannel(ctx, sess.ChannelID, channelName, team.ID); err != nil {
		return fmt.Errorf("registering channel %s: %w", sess.ChannelID, err)
	}

	sess.TeamID = team.ID
	sess.Step = StepCollectingBotAccounts
	m.logger.Infof("Channel %s registered under team %q", sess.ChannelID, team.Name)

	confirmation := fmt.Sprintf("Registered #%s under team %q. %s", channelName, team.Name, promptBots)
	return m.platform.PostMessage(ctx, sess.ChannelID, confirmation, sess.ThreadTS)
}

func (m *Machine) collectBotAccounts(ctx context.Context, sess *Session, msg models.Message) error {
	accounts := SplitAccounts(msg.Text)
	if accounts == nil {
		// a reply of only commas/whitespace still completes the dialog with
		// an empty allow-list; nil would reach the store as NULL
		accounts = []string{}
	}

	if err := m.registry.SetMonitoredAccounts(ctx, sess.ChannelID, accounts); err != nil {
		return fmt.Errorf("setting monitored accounts for channel %s: %w", sess.ChannelID, err)
	}

	m.sessions.Delete(sess.ChannelID)
	m.logger.Infof("Channel %s onboarded, monitoring %d bot accounts", sess.ChannelID, len(accounts))

	confirmation := fmt.Sprintf("All set! Now monitoring: %s.", strings.Join(accounts, ", "))
	return m.platform.PostMessage(ctx, sess.ChannelID, confirmation, sess.ThreadTS)
}

// SplitAccounts parses a comma-separated bot account list, trimming
// whitespace and dropping empty entries.
func SplitAccounts(text string) []string {
	var accounts []string
	for _, part := range strings.Split(text, ",") {
		if name := strings.TrimSpace(part); name != "" {
			accounts = append(accounts, name)
		}
	}
	return accounts
}
