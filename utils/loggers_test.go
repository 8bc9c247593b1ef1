package utils

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, log.DebugLevel, ParseLogLevel("debug"))
	assert.Equal(t, log.WarnLevel, ParseLogLevel("warning"))
	assert.Equal(t, log.ErrorLevel, ParseLogLevel("error"))
	assert.Equal(t, log.InfoLevel, ParseLogLevel("verbose"))
}

func TestParseLogFormatter(t *testing.T) {
	assert.Equal(t, log.JSONFormatter, ParseLogFormatter("json"))
	assert.Equal(t, log.LogfmtFormatter, ParseLogFormatter("logfmt"))
	assert.Equal(t, log.TextFormatter, ParseLogFormatter(""))
}

func TestLogError_AppendsErr(t *testing.T) {
	var buf bytes.Buffer
	InitLogger("info", "logfmt")
	SetLogOutput(&buf)
	t.Cleanup(func() { InitLogger("info", "text") })

	LogError("store failed", assert.AnError, "path", "/tmp/x")

	out := buf.String()
	assert.Contains(t, out, `msg="store failed"`)
	assert.Contains(t, out, "path=/tmp/x")
	assert.Contains(t, out, "err=")
}
