package display

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/mash-controller/internal/logic"
)

var beta = logic.StageSpec{Name: "Beta Amylase", TempMin: 55, TempMax: 65, Duration: 60 * time.Second}

func TestLinesMenu(t *testing.T) {
	lines := Lines(logic.Menu(1), logic.RuntimeContext{}, beta)
	assert.Equal(t, []string{"Select:", "Beta Amylase", "A:Next  B:Sel"}, lines)
}

func TestLinesRunning(t *testing.T) {
	ctx := logic.RuntimeContext{
		Temperature:  62.46,
		FlameActive:  true,
		StageElapsed: 12900 * time.Millisecond,
		TotalElapsed: 95 * time.Second,
	}
	lines := Lines(logic.Running(1), ctx, beta)
	assert.Equal(t, []string{
		"T: 62.5°C",
		"Beta Amylase",
		"Time: 12s",
		"Total: 95s",
		"Flame: ON",
	}, lines)

	ctx.FlameActive = false
	lines = Lines(logic.Running(1), ctx, beta)
	assert.Equal(t, "Flame: OFF", lines[4])
}

func TestWriterSinkOnlyWritesChanges(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf)

	require.NoError(t, sink.Render(logic.Menu(0), logic.RuntimeContext{}, beta))
	require.NoError(t, sink.Render(logic.Menu(0), logic.RuntimeContext{}, beta))
	assert.Equal(t, 1, strings.Count(buf.String(), "Select:"))

	ctx := logic.RuntimeContext{Temperature: 55}
	require.NoError(t, sink.Render(logic.Running(1), ctx, beta))
	assert.Contains(t, buf.String(), "[Running(1)]")
	assert.Contains(t, sink.Frame(), "T: 55.0°C")
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("closed") }

func TestWriterSinkError(t *testing.T) {
	sink := NewWriterSink(failingWriter{})
	assert.Error(t, sink.Render(logic.Menu(0), logic.RuntimeContext{}, beta))
}

func TestApplyUsesRenderCommand(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf)
	err := Apply(sink, []logic.Command{
		logic.CmdHeater{},
		logic.CmdRender{State: logic.Menu(1), Stage: beta},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Beta Amylase")
}
