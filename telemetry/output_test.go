package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	particles "github.com/aiira-co/three-particles"
)

func TestOutputDisabled(t *testing.T) {
	out, err := NewOutput("")
	require.NoError(t, err)
	require.Nil(t, out)

	// A nil Output must be safe to drive.
	require.NoError(t, out.WriteFrame(FrameRecord{}))
	require.NoError(t, out.WriteEvent(EventRecord{}))
	require.NoError(t, out.WriteConfig(nil))
	require.NoError(t, out.WriteSummary(RunSummary{}))
	require.NoError(t, out.Close())
	assert.Equal(t, "", out.Dir())
	assert.Equal(t, "", out.RunID())
}

func TestOutputFramesHeaderOnce(t *testing.T) {
	root := t.TempDir()
	out, err := NewOutput(root)
	require.NoError(t, err)
	require.NotNil(t, out)

	require.NoError(t, out.WriteFrame(FrameRecord{Frame: 1, SimTime: 0.016, Alive: 12}))
	require.NoError(t, out.WriteFrame(FrameRecord{Frame: 2, SimTime: 0.032, Alive: 24}))
	require.NoError(t, out.Close())

	data, err := os.ReadFile(filepath.Join(out.Dir(), "frames.csv"))
	require.NoError(t, err)

	text := string(data)
	assert.Equal(t, 1, strings.Count(text, "frame,sim_time"), "header must appear exactly once")
	lines := strings.Split(strings.TrimSpace(text), "\n")
	assert.Len(t, lines, 3, "header plus two records")
	assert.Contains(t, lines[1], "1,0.016,12")
	assert.Contains(t, lines[2], "2,0.032,24")
}

func TestOutputEvents(t *testing.T) {
	out, err := NewOutput(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, out.WriteEvent(EventRecord{SimTime: 1.5, Kind: "burst", Detail: "n=500"}))
	require.NoError(t, out.WriteEvent(EventRecord{SimTime: 2.0, Kind: "state", Detail: "paused"}))
	require.NoError(t, out.Close())

	data, err := os.ReadFile(filepath.Join(out.Dir(), "events.csv"))
	require.NoError(t, err)
	text := string(data)
	assert.Equal(t, 1, strings.Count(text, "sim_time,kind,detail"))
	assert.Contains(t, text, "burst")
	assert.Contains(t, text, "paused")
}

func TestOutputConfigAndSummary(t *testing.T) {
	out, err := NewOutput(t.TempDir())
	require.NoError(t, err)
	defer out.Close()

	cfg := particles.DefaultConfig()
	require.NoError(t, out.WriteConfig(cfg))

	sum := RunSummary{RunID: out.RunID(), Frames: 42, P50MS: 1.2}
	require.NoError(t, out.WriteSummary(sum))

	cfgData, err := os.ReadFile(filepath.Join(out.Dir(), "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(cfgData), "capacity:")

	sumData, err := os.ReadFile(filepath.Join(out.Dir(), "summary.json"))
	require.NoError(t, err)
	assert.Contains(t, string(sumData), `"frames": 42`)
	assert.Contains(t, string(sumData), out.RunID())
}

func TestOutputRunDirsUnique(t *testing.T) {
	root := t.TempDir()

	a, err := NewOutput(root)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewOutput(root)
	require.NoError(t, err)
	defer b.Close()

	assert.NotEqual(t, a.Dir(), b.Dir())
}
