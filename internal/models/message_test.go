package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTS(t *testing.T) {
	tests := []struct {
		name    string
		ts      string
		want    float64
		wantErr bool
	}{
		{name: "plain", ts: "1726000000.123456", want: 1726000000.123456},
		{name: "no fraction", ts: "1726000000", want: 1726000000},
		{name: "whitespace", ts: " 1726000000.5 ", want: 1726000000.5},
		{name: "empty", ts: "", wantErr: true},
		{name: "garbage", ts: "not-a-ts", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTS(tt.ts)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestTSToTime(t *testing.T) {
	got, err := TSToTime("1726000000.123456")
	require.NoError(t, err)
	require.Equal(t, time.Unix(1726000000, 123456000).UTC(), got)

	got, err = TSToTime("1726000000")
	require.NoError(t, err)
	require.Equal(t, time.Unix(1726000000, 0).UTC(), got)

	// short fractions are padded, long ones truncated to microseconds
	got, err = TSToTime("1726000000.5")
	require.NoError(t, err)
	require.Equal(t, time.Unix(1726000000, 500000000).UTC(), got)

	got, err = TSToTime("1726000000.123456789")
	require.NoError(t, err)
	require.Equal(t, time.Unix(1726000000, 123456000).UTC(), got)

	_, err = TSToTime("nope")
	require.Error(t, err)
}

func TestTimeToTSRoundTrip(t *testing.T) {
	original := "1726000000.123456"
	parsed, err := TSToTime(original)
	require.NoError(t, err)
	require.Equal(t, original, TimeToTS(parsed))
}

func TestMessagePredicates(t *testing.T) {
	require.True(t, Message{BotID: "B1"}.FromBot())
	require.False(t, Message{UserID: "U1"}.FromBot())

	require.True(t, Message{ThreadTS: "1.000001"}.HasThread())
	require.True(t, Message{ReplyCount: 3}.HasThread())
	require.False(t, Message{}.HasThread())
}
