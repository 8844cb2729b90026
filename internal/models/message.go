package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Message is the validated ingress form of a platform message. Both ingestion
// paths convert the platform's wire shape into this record once, at the
// boundary, and treat it as a strict structure afterwards.
type Message struct {
	ChannelID  string `json:"channel_id"`
	UserID     string `json:"user_id"`
	BotID      string `json:"bot_id,omitempty"`
	BotName    string `json:"bot_name,omitempty"`
	Text       string `json:"text"`
	TS         string `json:"ts"`
	ThreadTS   string `json:"thread_ts,omitempty"`
	ReplyCount int    `json:"reply_count,omitempty"`
}

// FromBot reports whether the message was posted under a bot identity.
func (m Message) FromBot() bool {
	return m.BotID != ""
}

// HasThread reports whether the message anchors or belongs to a thread.
func (m Message) HasThread() bool {
	return m.ThreadTS != "" || m.ReplyCount > 0
}

// EpochTS returns the platform timestamp as float epoch seconds.
func (m Message) EpochTS() (float64, error) {
	return ParseTS(m.TS)
}

// ParseTS parses a platform "seconds.fraction" timestamp into float epoch
// seconds.
func ParseTS(ts string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(ts), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid platform timestamp %q: %w", ts, err)
	}
	return v, nil
}

// TSToTime converts a platform timestamp into a UTC time.Time.
func TSToTime(ts string) (time.Time, error) {
	parts := strings.SplitN(strings.TrimSpace(ts), ".", 2)
	seconds, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid platform timestamp %q: %w", ts, err)
	}

	var micros int64
	if len(parts) == 2 && parts[1] != "" {
		frac := parts[1]
		if len(frac) > 6 {
			frac = frac[:6]
		}
		for len(frac) < 6 {
			frac += "0"
		}
		micros, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid platform timestamp %q: %w", ts, err)
		}
	}

	return time.Unix(seconds, micros*1000).UTC(), nil
}

// TimeToTS converts a time.Time back into the platform timestamp format.
func TimeToTS(t time.Time) string {
	return fmt.Sprintf("%d.%06d", t.Unix(), int64(t.Nanosecond())/1000)
}
