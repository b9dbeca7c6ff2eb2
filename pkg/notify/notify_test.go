package notify_test

import (
	"bytes"
	"testing"

	"github.com/devantler-tech/kubepack/pkg/notify"
	"github.com/stretchr/testify/assert"
)

func TestWriteMessage_Symbols(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		msgType notify.MessageType
		want    string
	}{
		{name: "error", msgType: notify.ErrorType, want: "✗ hello\n"},
		{name: "warning", msgType: notify.WarningType, want: "⚠ hello\n"},
		{name: "activity", msgType: notify.ActivityType, want: "► hello\n"},
		{name: "success", msgType: notify.SuccessType, want: "✔ hello\n"},
		{name: "info", msgType: notify.InfoType, want: "ℹ hello\n"},
		{name: "debug", msgType: notify.DebugType, want: "· hello\n"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer

			notify.WriteMessage(notify.Message{Type: testCase.msgType, Content: "hello", Writer: &out})

			assert.Equal(t, testCase.want, out.String())
		})
	}
}

func TestWriteMessage_WithFormatting(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	notify.Errorf(&out, "error: %s (%d)", "failed", 42)

	assert.Equal(t, "✗ error: failed (42)\n", out.String())
}

func TestWriteMessage_IndentsMultilineContent(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	notify.Warningf(&out, "first\nsecond")

	assert.Equal(t, "⚠ first\n  second\n", out.String())
}

func TestTitlef(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	notify.Titlef(&out, "🚀", "Build %s", "images")

	assert.Equal(t, "🚀 Build images\n", out.String())
}

func TestWriterLogger_DebugOnlyWhenVerbose(t *testing.T) {
	t.Parallel()

	var quiet, verbose bytes.Buffer

	notify.NewLogger(&quiet, false).Debugf("hidden")
	notify.NewLogger(&verbose, true).Debugf("shown %d", 1)

	assert.Empty(t, quiet.String())
	assert.Equal(t, "· shown 1\n", verbose.String())
}

func TestWriterLogger_Levels(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	logger := notify.NewLogger(&out, false)
	logger.Infof("info")
	logger.Warnf("warn")
	logger.Errorf("error")

	assert.Equal(t, "ℹ info\n⚠ warn\n✗ error\n", out.String())
	assert.Equal(t, &out, logger.Writer())
}
