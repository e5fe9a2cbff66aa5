package helpers

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_StampsAppAndHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("eventhub", "production", "warn")
	logger.SetOutput(&buf)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())

	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	LogError(logger, "write failed", errors.New("disk full"), logrus.Fields{"id": "e1"})
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "eventhub", line["app"])
	assert.Equal(t, "disk full", line["error"])
	assert.Equal(t, "e1", line["id"])
	assert.Equal(t, "write failed", line["msg"])
}

func TestNewLogger_DevelopmentDefaults(t *testing.T) {
	logger := NewLogger("eventhub", "development", "bogus")
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}
