package layout

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tOgg1/visrange/internal/blueprint"
	"github.com/tOgg1/visrange/internal/models"
	"github.com/tOgg1/visrange/internal/resolve"
)

const sampleYAML = `
version: 1
views:
  - view:
      id: plot
      class: TimeSeries
      name: Joint angles
    defaults:
      - timeline: log_time
        range:
          start: "rel:-5s"
          end: cursor
    overrides:
      /robot/arm:
        - timeline: log_tick
          range:
            start: {kind: relative_to_cursor, time: -500}
            end: {kind: relative_to_cursor, time: 0}
  - view:
      id: scene
      class: 3D
`

func TestImport_MixedBoundaryForms(t *testing.T) {
	snap, err := Import(strings.NewReader(sampleYAML))
	require.NoError(t, err)
	require.Len(t, snap.Views(), 2)

	defaults, err := snap.ViewDefaults("plot")
	require.NoError(t, err)
	require.True(t, defaults[0].Range.Equal(models.RelativeRange(models.TimeIntFromDuration(-5*time.Second), 0)))

	mode, err := snap.QueryMode("plot", "/robot/arm", "log_tick", 1000)
	require.NoError(t, err)
	require.Equal(t, resolve.Range{Low: resolve.Finite(500), High: resolve.Finite(1000)}, *mode.Range)

	view, ok := snap.View("scene")
	require.True(t, ok)
	require.Equal(t, models.ViewClassSpatial3D, view.Class)
}

func TestExportImport_RoundTrip(t *testing.T) {
	original, err := Import(strings.NewReader(sampleYAML))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, original))
	require.Contains(t, buf.String(), "version: 1")
	require.Contains(t, buf.String(), "kind: relative_to_cursor")

	reloaded, err := Import(&buf)
	require.NoError(t, err)
	require.Equal(t, len(original.Configs()), len(reloaded.Configs()))

	for i, cfg := range original.Configs() {
		got := reloaded.Configs()[i]
		require.Equal(t, cfg.View.ID, got.View.ID)
		require.Equal(t, cfg.Defaults.Timelines(), got.Defaults.Timelines())
		for entity, ranges := range cfg.Overrides {
			require.Len(t, got.Overrides[entity], len(ranges))
			for j := range ranges {
				require.True(t, ranges[j].Range.Equal(got.Overrides[entity][j].Range))
			}
		}
	}
}

func TestExportImportFile(t *testing.T) {
	snap, err := blueprint.NewSnapshot([]blueprint.ViewConfig{{
		View:     models.View{ID: "logs", Class: models.ViewClassTextLog},
		Defaults: models.VisibleTimeRanges{{Timeline: "frame", Range: models.EverythingRange()}},
	}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "layouts", "main.yaml")
	require.NoError(t, ExportFile(path, snap))

	loaded, err := ImportFile(path)
	require.NoError(t, err)
	mode, err := loaded.QueryMode("logs", "/stdout", "frame", 3)
	require.NoError(t, err)
	require.True(t, mode.Range.IsEverything())
	require.Equal(t, resolve.SourceViewDefault, mode.Source)
}

func TestImport_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "newer version", input: "version: 2\nviews: []\n"},
		{name: "unknown key", input: "version: 1\nviewz: []\n"},
		{name: "missing class", input: "views:\n  - view: {id: a}\n"},
		{name: "missing end", input: "views:\n  - view: {id: a, class: 2D}\n    defaults:\n      - timeline: t\n        range: {start: inf}\n"},
		{name: "bad boundary text", input: "views:\n  - view: {id: a, class: 2D}\n    defaults:\n      - timeline: t\n        range: {start: soon, end: inf}\n"},
		{name: "duplicate view", input: "views:\n  - view: {id: a, class: 2D}\n  - view: {id: a, class: 3D}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Import(strings.NewReader(tt.input))
			require.Error(t, err)
		})
	}

	_, err := Import(strings.NewReader("version: 9\n"))
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestImport_EmptyInput(t *testing.T) {
	snap, err := Import(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, snap.Views())
}
