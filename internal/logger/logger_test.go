package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	l := newLogger()

	assert.Equal(t, logrus.WarnLevel, l.GetLevel())
	formatter, ok := l.Formatter.(*logrus.TextFormatter)
	require.True(t, ok)
	assert.Equal(t, time.RFC3339Nano, formatter.TimestampFormat)
	assert.True(t, formatter.FullTimestamp)
}

func TestGetLogger_FallsBackToGlobal(t *testing.T) {
	entry := G(context.Background())
	assert.Equal(t, L.Logger, entry.Logger)
}

func TestWithLogger(t *testing.T) {
	custom := logrus.NewEntry(logrus.New()).WithField("cmd", "upload")
	ctx := WithLogger(context.Background(), custom)

	got := GetLogger(ctx)
	assert.Equal(t, "upload", got.Data["cmd"])
}

func TestSetLogLevel(t *testing.T) {
	orig := L.Logger.GetLevel()
	t.Cleanup(func() { L.Logger.SetLevel(orig) })

	require.NoError(t, SetLogLevel("debug"))
	assert.Equal(t, logrus.DebugLevel, L.Logger.GetLevel())

	assert.Error(t, SetLogLevel("loud"))
	assert.Equal(t, logrus.DebugLevel, L.Logger.GetLevel())
}

func TestSetLogFormatJSON(t *testing.T) {
	origFormatter := L.Logger.Formatter
	origOut := L.Logger.Out
	origLevel := L.Logger.GetLevel()
	t.Cleanup(func() {
		L.Logger.Formatter = origFormatter
		L.Logger.SetOutput(origOut)
		L.Logger.SetLevel(origLevel)
	})

	var buf bytes.Buffer
	SetLogOutput(&buf)
	SetLogFormat("json")
	L.Logger.SetLevel(logrus.InfoLevel)

	L.WithField("code", "ABC123").Info("uploaded")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "uploaded", line["message"])
	assert.Equal(t, "info", line["logLevel"])
	assert.Equal(t, "ABC123", line["code"])
}
