package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Format: "json", Output: &buf})

	l.Info("hidden")
	l.Warn("shown")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "shown", entry["message"])
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "loud", Output: &buf})

	l.Debug("hidden")
	l.Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestHTTPRequest_LevelByStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		err    error
		level  string
	}{
		{name: "success", status: 200, level: "debug"},
		{name: "client error", status: 404, level: "warn"},
		{name: "server error", status: 502, level: "error"},
		{name: "transport error", status: 0, err: errors.New("dial tcp: refused"), level: "error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(Config{Level: "debug", Output: &buf})

			l.HTTPRequest("req-1", "GET", "/api/mobile/classes/1/reviews", tc.status, 15*time.Millisecond, tc.err)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
			assert.Equal(t, tc.level, entry["level"])
			assert.Equal(t, "req-1", entry["request_id"])
			assert.Equal(t, float64(tc.status), entry["status_code"])
		})
	}
}

func TestComponent_AddsField(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf}).Component("reviews")

	l.Info("hello")

	assert.Contains(t, buf.String(), `"component":"reviews"`)
}
