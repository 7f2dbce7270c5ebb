package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactHookScrubsMessageAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})

	h := NewRedactHook()
	h.Add("s3cr3t-value", "")
	l.AddHook(h)

	l.WithField("key", "s3cr3t-value").
		WithField("err", errors.New("bad key s3cr3t-value")).
		Infof("signing with s3cr3t-value")

	out := buf.String()
	assert.NotContains(t, out, "s3cr3t-value")
	assert.Contains(t, out, "signing with ***")
}

func TestInitWritesToFileAndConsole(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "logs", "bithumb.log")
	var console bytes.Buffer

	require.NoError(t, Init(Config{Level: "debug", OutputFile: file, MaxSize: 1, Console: &console, NoColor: true}))
	Redact("very-secret-key")

	Debugf("hello %s", "very-secret-key")
	assert.Equal(t, file, GetCurrentLogFile())
	assert.Contains(t, console.String(), "hello ***")
	assert.NotContains(t, console.String(), "very-secret-key")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello ***")

	require.NoError(t, InitDefault())
	assert.Equal(t, "", GetCurrentLogFile())
}
