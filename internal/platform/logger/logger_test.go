package logger

import (
	"bytes"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biblio/internal/platform/config"
)

func TestNew_JSONFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, config.Log{Level: "warn", Format: "json"})

	log.Info("dropped")
	log.Warn("kept", "loan_id", "abc")

	var line map[string]any
	require.NoError(t, jsoniter.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "abc", line["loan_id"])
	assert.Equal(t, "biblio", line["service"])
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, config.Log{Format: "text"})

	log.Info("hello")

	assert.Contains(t, buf.String(), "msg=hello")
}
