package hooks

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/docfmt/pkg/formatter"
)

type fakeBar struct {
	total  int
	adds   int
	closed bool
}

func (f *fakeBar) Add(num int) error { f.adds += num; return nil }
func (f *fakeBar) Close() error      { f.closed = true; return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(new(bytes.Buffer), nil))
}

func TestProgressBarTracksRun(t *testing.T) {
	bar := &fakeBar{}
	h := NewCLIHooks(discardLogger(), false, true)
	require.NotNil(t, h.newBar)
	h.newBar = func(total int) ProgressBar {
		bar.total = total
		return bar
	}

	h.OnRunStart(3)
	for i := 0; i < 3; i++ {
		h.OnFileStatusUpdate("a.py", formatter.StatusFormatted, "", time.Millisecond)
	}
	h.OnRunComplete(formatter.Report{})

	assert.Equal(t, 3, bar.total)
	assert.Equal(t, 3, bar.adds)
	assert.True(t, bar.closed)
}

func TestVerboseDisablesBar(t *testing.T) {
	h := NewCLIHooks(discardLogger(), true, true)
	assert.Nil(t, h.newBar)
}

func TestProgressDisabled(t *testing.T) {
	h := NewCLIHooks(discardLogger(), false, false)
	assert.Nil(t, h.newBar)

	h.OnRunStart(5)
	h.OnFileStatusUpdate("a.py", formatter.StatusFormatted, "", 0)
	h.OnRunComplete(formatter.Report{})
}

func TestEmptyRunSkipsBar(t *testing.T) {
	h := NewCLIHooks(discardLogger(), false, true)
	h.newBar = func(int) ProgressBar {
		t.Fatal("bar built for empty run")
		return nil
	}
	h.OnRunStart(0)
	assert.Nil(t, h.bar)
}

func TestErroredFileIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := NewCLIHooks(logger, false, false)

	h.OnFileStatusUpdate("bad.py", formatter.StatusErrored, "read failed", 0)

	assert.Contains(t, buf.String(), "file failed")
	assert.Contains(t, buf.String(), "bad.py")
}

func TestVerboseLogsEveryFile(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := NewCLIHooks(logger, true, false)

	h.OnFileStatusUpdate("a.md", formatter.StatusUnchanged, "", time.Millisecond)
	h.OnFileStatusUpdate("b.md", formatter.StatusErrored, "boom", time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, "a.md")
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "boom")
}
