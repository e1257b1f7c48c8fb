package query

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tOgg1/visrange/internal/models"
	"github.com/tOgg1/visrange/internal/resolve"
)

func seededStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	for _, ts := range []models.TimeInt{900, 100, 500, 1000, 1001, 499} {
		store.Add(Sample{Entity: "/arm", Timeline: "tick", Time: ts})
	}
	store.Add(Sample{Entity: "/arm", Timeline: "log_time", Time: 1})
	return store
}

func times(samples []Sample) []models.TimeInt {
	out := make([]models.TimeInt, 0, len(samples))
	for _, s := range samples {
		out = append(out, s.Time)
	}
	return out
}

func TestMemoryStore_RangeIsInclusive(t *testing.T) {
	store := seededStore(t)
	r := resolve.ResolveRange(models.RelativeRange(-500, 0), 1000)

	got, err := store.Fetch(context.Background(), Request{
		Entity:   "/arm",
		Timeline: "tick",
		Mode:     resolve.RangeMode(r, resolve.SourceEntityOverride),
	})
	require.NoError(t, err)
	require.Equal(t, []models.TimeInt{500, 900, 1000}, times(got))
}

func TestMemoryStore_EverythingAndEmpty(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	got, err := store.Fetch(ctx, Request{Entity: "/arm", Timeline: "tick", Mode: resolve.RangeMode(resolve.Everything(), resolve.SourceClassDefault)})
	require.NoError(t, err)
	require.Equal(t, []models.TimeInt{100, 499, 500, 900, 1000, 1001}, times(got))

	degenerate := resolve.ResolveRange(models.RelativeRange(100, 0), 500)
	require.True(t, degenerate.IsEmpty())
	got, err = store.Fetch(ctx, Request{Entity: "/arm", Timeline: "tick", Mode: resolve.RangeMode(degenerate, resolve.SourceViewDefault)})
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = store.Fetch(ctx, Request{Entity: "/leg", Timeline: "tick", Mode: resolve.RangeMode(resolve.Everything(), resolve.SourceClassDefault)})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestMemoryStore_LatestAt(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		cursor models.TimeInt
		want   []models.TimeInt
	}{
		{name: "exact hit", cursor: 500, want: []models.TimeInt{500}},
		{name: "between samples", cursor: 899, want: []models.TimeInt{500}},
		{name: "after last", cursor: 5000, want: []models.TimeInt{1001}},
		{name: "before first", cursor: 99, want: []models.TimeInt{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Fetch(ctx, Request{Entity: "/arm", Timeline: "tick", Mode: resolve.LatestAtMode(tt.cursor, resolve.SourceClassDefault)})
			require.NoError(t, err)
			require.Equal(t, tt.want, times(got))
		})
	}
}

func TestMemoryStore_RejectsBadRequests(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Fetch(ctx, Request{Timeline: "tick", Mode: resolve.LatestAtMode(0, resolve.SourceClassDefault)})
	require.ErrorIs(t, err, ErrInvalidRequest)
	require.ErrorIs(t, err, models.ErrInvalidEntity)

	_, err = store.Fetch(ctx, Request{Entity: "/a", Timeline: "tick", Mode: resolve.QueryMode{Kind: resolve.QueryKindRange}})
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = store.Fetch(ctx, Request{Entity: "/a", Timeline: "tick", Mode: resolve.QueryMode{Kind: "sideways"}})
	require.ErrorIs(t, err, ErrInvalidRequest)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = store.Fetch(cancelled, Request{Entity: "/a", Timeline: "tick", Mode: resolve.LatestAtMode(0, resolve.SourceClassDefault)})
	require.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_LoadJSONL(t *testing.T) {
	input := `{"entity":"/arm","timeline":"tick","time":3,"value":{"x":1}}

{"entity":"/arm","timeline":"tick","time":1,"value":2.5}
`
	store := NewMemoryStore()
	n, err := store.LoadJSONL(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, 2, store.Len())

	got, err := store.Fetch(context.Background(), Request{Entity: "/arm", Timeline: "tick", Mode: resolve.LatestAtMode(2, resolve.SourceClassDefault)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.JSONEq(t, `2.5`, string(got[0].Value))

	_, err = NewMemoryStore().LoadJSONL(strings.NewReader(`{"entity":"","timeline":"t","time":1}`))
	require.ErrorIs(t, err, models.ErrInvalidEntity)
	require.Contains(t, err.Error(), "line 1")

	_, err = NewMemoryStore().LoadJSONL(strings.NewReader("{\"entity\":\"/a\",\"timeline\":\"t\"}\nnot json"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
}
