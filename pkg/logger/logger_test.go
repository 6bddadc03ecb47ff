package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoggerFallback(t *testing.T) {
	ctx := context.Background()
	entry := GetLogger(ctx)
	require.NotNil(t, entry)
	assert.Equal(t, L.Logger, entry.Logger)
}

func TestWithLoggerRoundTrip(t *testing.T) {
	base := logrus.NewEntry(logrus.New()).WithField("request_id", "abc")
	ctx := WithLogger(context.Background(), base)

	got := GetLogger(ctx)
	assert.Equal(t, "abc", got.Data["request_id"])
}

func TestSetLogLevel(t *testing.T) {
	t.Run("valid level", func(t *testing.T) {
		require.NoError(t, SetLogLevel("debug"))
		assert.Equal(t, logrus.DebugLevel, L.Logger.GetLevel())
		require.NoError(t, SetLogLevel("info"))
	})

	t.Run("invalid level", func(t *testing.T) {
		assert.Error(t, SetLogLevel("chatty"))
	})
}

func TestJSONFormat(t *testing.T) {
	prevOut := L.Logger.Out
	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer SetLogOutput(prevOut)
	SetLogFormat("json")
	defer SetLogFormat("text")

	L.WithField("skill", "terraform-iac").Info("routed")

	line := strings.TrimSpace(buf.String())
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &payload))
	assert.Equal(t, "routed", payload["message"])
	assert.Equal(t, "terraform-iac", payload["skill"])
	assert.Contains(t, payload, "timestamp")
}
