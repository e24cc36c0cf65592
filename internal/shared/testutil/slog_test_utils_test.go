package testutil

import (
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		assert.Len(t, handler.GetRecords(), 2)
		assert.True(t, handler.ContainsMessage("test message"))
		assert.True(t, handler.ContainsAttr("key", "value"))
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")
		logger.Error("error msg")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
	})

	t.Run("derived loggers share the buffer", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With(slog.String("component", "session_manager")).
			WithGroup("file").
			Info("decoded", slog.String("name", "a.csv"))

		records := handler.GetRecords()
		require.Len(t, records, 1)
		assert.Equal(t, "session_manager", records[0].Attrs["component"])
		assert.Equal(t, "a.csv", records[0].Attrs["file.name"])
	})

	t.Run("clear functionality", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("message 1")
		logger.Info("message 2")
		assert.Equal(t, 2, handler.Count())

		handler.Clear()
		assert.Equal(t, 0, handler.Count())
	})

	t.Run("assertion helpers", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("important message", slog.String("component", "test"))
		logger.Warn("warning message", slog.Int("retry", 3))

		AssertLogContains(t, handler, slog.LevelInfo, "important")
		AssertLogAttr(t, handler, "component", "test")
		AssertNoErrors(t, handler)
	})

	t.Run("thread safety", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				logger.Info("concurrent log", slog.Int("goroutine", n))
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 10, handler.Count())
	})
}

func TestReportFixtures(t *testing.T) {
	fixtures := ReportFixtures()
	require.Len(t, fixtures, 4)
	for _, f := range fixtures {
		assert.NotEmpty(t, f.Name)
		assert.NotEmpty(t, f.Data)
	}
}

func TestWriteHelpers(t *testing.T) {
	dir := t.TempDir()

	csvPath := WriteFixture(t, dir, "a.csv", ExclusionCSV)
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, ExclusionCSV, string(data))

	xlsxPath := WriteWorkbook(t, dir, "a.xlsx", [][]string{{"Placement Name", "Video Suitability"}, {"A", "Unsuitable"}})
	info, err := os.Stat(xlsxPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
