package logger_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/logger"
)

func TestLog(t *testing.T) {
	buff := bytes.NewBuffer([]byte{})
	templogger, err := logger.New().FromBuffer(buff).Make()
	require.NoError(t, err)
	require.NotNil(t, templogger)
	require.Equal(t, buff.Len(), 0)

	templogger.Logger.Info().Str("item_id", "abc").Msg("Test")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buff.Bytes(), &entry))
	require.Equal(t, "Test", entry["message"])
	require.Equal(t, "info", entry["level"])
	require.Equal(t, "abc", entry["item_id"])
}

func TestLog_level(t *testing.T) {
	buff := bytes.NewBuffer([]byte{})
	templogger, err := logger.New().FromBuffer(buff).WithLevel("warn").Make()
	require.NoError(t, err)

	templogger.Logger.Info().Msg("hidden")
	require.Equal(t, 0, buff.Len())

	templogger.Logger.Warn().Msg("shown")
	require.Contains(t, buff.String(), "shown")

	_, err = logger.New().WithLevel("loud").Make()
	require.Error(t, err)
}

func TestLog_console(t *testing.T) {
	buff := bytes.NewBuffer([]byte{})
	templogger, err := logger.New().FromBuffer(buff).WithFormat(logger.FormatConsole).Make()
	require.NoError(t, err)

	templogger.Logger.Info().Msg("Test")
	require.Contains(t, buff.String(), "Test")
	require.False(t, json.Valid(bytes.TrimSpace(buff.Bytes())))

	_, err = logger.New().WithFormat("xml").Make()
	require.Error(t, err)
}

func TestLog_file(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shoplist.log")
	templogger, err := logger.New().FromPath(path).Make()
	require.NoError(t, err)

	templogger.Logger.Info().Msg("to file")
	require.NoError(t, templogger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "to file")
}
