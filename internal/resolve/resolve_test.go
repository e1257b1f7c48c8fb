package resolve

import (
	"math"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tOgg1/visrange/internal/models"
)

var sampleTimes = []models.TimeInt{
	models.MinTimeInt,
	models.MinTimeInt + 1,
	-1_000_000,
	-500,
	-1,
	0,
	1,
	100,
	1000,
	1_000_000,
	models.MaxTimeInt - 1,
	models.MaxTimeInt,
}

func TestResolveBoundary_AbsoluteIgnoresCursor(t *testing.T) {
	for _, value := range sampleTimes {
		for _, cursor := range sampleTimes {
			for _, side := range []Side{SideStart, SideEnd} {
				got := ResolveBoundary(models.Absolute{Time: value}, cursor, side)
				require.Equal(t, Finite(value), got, "abs:%d at cursor %d", value, cursor)
			}
		}
	}
}

func TestResolveBoundary_RelativeSaturates(t *testing.T) {
	for _, offset := range sampleTimes {
		for _, cursor := range sampleTimes {
			got := ResolveBoundary(models.RelativeToCursor{Offset: offset}, cursor, SideStart)
			require.Equal(t, Finite(bigSaturatingAdd(cursor, offset)), got, "rel:%d at cursor %d", offset, cursor)
		}
	}
}

func TestResolveBoundary_RelativeSaturatesToFiniteExtremes(t *testing.T) {
	high := ResolveBoundary(models.RelativeToCursor{Offset: 10}, models.MaxTimeInt-5, SideEnd)
	require.True(t, high.IsFinite())
	value, _ := high.Value()
	require.Equal(t, models.MaxTimeInt, value)

	low := ResolveBoundary(models.RelativeToCursor{Offset: -10}, models.MinTimeInt+5, SideStart)
	require.True(t, low.IsFinite())
	value, _ = low.Value()
	require.Equal(t, models.MinTimeInt, value)
}

func TestResolveBoundary_InfiniteDependsOnSide(t *testing.T) {
	require.True(t, ResolveBoundary(models.Infinite{}, 1000, SideStart).IsNegInfinity())
	require.True(t, ResolveBoundary(models.Infinite{}, 1000, SideEnd).IsPosInfinity())
	require.True(t, ResolveBoundary(nil, 1000, SideStart).IsNegInfinity())
	require.True(t, ResolveBoundary(nil, 1000, SideEnd).IsPosInfinity())
}

func TestResolveRange_Everything(t *testing.T) {
	for _, cursor := range sampleTimes {
		got := ResolveRange(models.EverythingRange(), cursor)
		require.Equal(t, Everything(), got)
		require.True(t, got.IsEverything())
		require.False(t, got.IsEmpty())
	}
}

func TestResolveRange_RelativeWindow(t *testing.T) {
	got := ResolveRange(models.RelativeRange(-500, 0), 1000)
	require.Equal(t, Range{Low: Finite(500), High: Finite(1000)}, got)
	require.True(t, got.Contains(500))
	require.True(t, got.Contains(1000))
	require.False(t, got.Contains(499))
	require.False(t, got.Contains(1001))
}

func TestResolveRange_DegenerateIsEmptyNotSwapped(t *testing.T) {
	got := ResolveRange(models.RelativeRange(100, 0), 0)

	require.Equal(t, Finite(100), got.Low, "low must not be swapped")
	require.Equal(t, Finite(0), got.High, "high must not be swapped")
	require.True(t, got.IsEmpty())
	for _, value := range []models.TimeInt{-1, 0, 50, 100, 101} {
		require.False(t, got.Contains(value), "degenerate range must contain nothing, contained %d", value)
	}
}

func TestResolveRange_SinglePointIsNotEmpty(t *testing.T) {
	got := ResolveRange(models.AbsoluteRange(7, 7), 0)
	require.False(t, got.IsEmpty())
	require.True(t, got.Contains(7))
}

func TestResolveQueryMode(t *testing.T) {
	const cursor models.TimeInt = 1000

	tests := []struct {
		name      string
		class     models.ViewClass
		view      models.VisibleTimeRanges
		entity    models.VisibleTimeRanges
		timeline  string
		wantKind  QueryKind
		wantRange Range
		source    Source
	}{
		{
			name:      "entity override on relative window",
			class:     models.ViewClassSpatial3D,
			entity:    models.VisibleTimeRanges{{Timeline: "t", Range: models.RelativeRange(-500, 0)}},
			timeline:  "t",
			wantKind:  QueryKindRange,
			wantRange: Range{Low: Finite(500), High: Finite(1000)},
			source:    SourceEntityOverride,
		},
		{
			name:      "entity override beats view default",
			class:     models.ViewClassTimeSeries,
			view:      models.VisibleTimeRanges{{Timeline: "log_tick", Range: models.AbsoluteRange(0, 10)}},
			entity:    models.VisibleTimeRanges{{Timeline: "log_tick", Range: models.AbsoluteRange(20, 30)}},
			timeline:  "log_tick",
			wantKind:  QueryKindRange,
			wantRange: Range{Low: Finite(20), High: Finite(30)},
			source:    SourceEntityOverride,
		},
		{
			name:      "view default applies without override",
			class:     models.ViewClassSpatial2D,
			view:      models.VisibleTimeRanges{{Timeline: "frame", Range: models.RelativeRange(-10, 10)}},
			timeline:  "frame",
			wantKind:  QueryKindRange,
			wantRange: Range{Low: Finite(990), High: Finite(1010)},
			source:    SourceViewDefault,
		},
		{
			name:      "override on another timeline is ignored",
			class:     models.ViewClassSpatial2D,
			view:      models.VisibleTimeRanges{{Timeline: "frame", Range: models.RelativeRange(-10, 0)}},
			entity:    models.VisibleTimeRanges{{Timeline: "log_time", Range: models.EverythingRange()}},
			timeline:  "frame",
			wantKind:  QueryKindRange,
			wantRange: Range{Low: Finite(990), High: Finite(1000)},
			source:    SourceViewDefault,
		},
		{
			name:      "unconfigured time series shows everything",
			class:     models.ViewClassTimeSeries,
			timeline:  "t",
			wantKind:  QueryKindRange,
			wantRange: Everything(),
			source:    SourceClassDefault,
		},
		{
			name:     "unconfigured spatial view is latest-at",
			class:    models.ViewClassSpatial3D,
			timeline: "t",
			wantKind: QueryKindLatestAt,
			source:   SourceClassDefault,
		},
		{
			name:     "unknown class is latest-at",
			class:    models.ViewClass("Custom"),
			timeline: "t",
			wantKind: QueryKindLatestAt,
			source:   SourceClassDefault,
		},
		{
			name:     "timeline names are case-sensitive",
			class:    models.ViewClassTextLog,
			view:     models.VisibleTimeRanges{{Timeline: "Frame", Range: models.EverythingRange()}},
			timeline: "frame",
			wantKind: QueryKindLatestAt,
			source:   SourceClassDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveQueryMode(tt.class, tt.view, tt.entity, tt.timeline, cursor)
			require.Equal(t, tt.wantKind, got.Kind)
			require.Equal(t, tt.source, got.Source)
			require.Equal(t, cursor, got.At)
			if tt.wantKind == QueryKindRange {
				require.NotNil(t, got.Range)
				require.Equal(t, tt.wantRange, *got.Range)
			} else {
				require.Nil(t, got.Range)
			}
		})
	}
}

func TestResolveQueryMode_OverrideWinsForEveryClass(t *testing.T) {
	view := models.VisibleTimeRanges{{Timeline: "log_tick", Range: models.EverythingRange()}}
	entity := models.VisibleTimeRanges{{Timeline: "log_tick", Range: models.AbsoluteRange(1, 2)}}

	classes := append([]models.ViewClass{"Unknown"}, models.KnownViewClasses...)
	for _, class := range classes {
		got := ResolveQueryMode(class, view, entity, "log_tick", 0)
		require.Equal(t, SourceEntityOverride, got.Source, "class %s", class)
		require.Equal(t, Range{Low: Finite(1), High: Finite(2)}, *got.Range, "class %s", class)
	}
}

func TestResolveQueryMode_DegenerateOverrideStaysEmpty(t *testing.T) {
	entity := models.VisibleTimeRanges{{Timeline: "t", Range: models.RelativeRange(100, 0)}}
	got := ResolveQueryMode(models.ViewClassTimeSeries, nil, entity, "t", 0)
	require.True(t, got.IsRange())
	require.True(t, got.IsEmpty())
}

func TestResolveQueryMode_Concurrent(t *testing.T) {
	view := models.VisibleTimeRanges{{Timeline: "t", Range: models.RelativeRange(-5, 5)}}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(cursor models.TimeInt) {
			defer wg.Done()
			got := ResolveQueryMode(models.ViewClassSpatial2D, view, nil, "t", cursor)
			if *got.Range != (Range{Low: Finite(cursor - 5), High: Finite(cursor + 5)}) {
				t.Errorf("cursor %d: unexpected range %s", cursor, got.Range)
			}
		}(models.TimeInt(i * 100))
	}
	wg.Wait()
}

func TestExtendedTime_Compare(t *testing.T) {
	ordered := []ExtendedTime{
		NegInfinity(),
		Finite(models.MinTimeInt),
		Finite(0),
		Finite(models.MaxTimeInt),
		PosInfinity(),
	}
	for i := range ordered {
		for j := range ordered {
			want := 0
			if i < j {
				want = -1
			} else if i > j {
				want = 1
			}
			require.Equal(t, want, ordered[i].Compare(ordered[j]), "%s vs %s", ordered[i], ordered[j])
		}
	}
}

func TestDefaultPolicyFor(t *testing.T) {
	require.Equal(t, PolicyEverything, DefaultPolicyFor(models.ViewClassTimeSeries))
	for _, class := range models.KnownViewClasses {
		if class == models.ViewClassTimeSeries {
			continue
		}
		require.Equal(t, PolicyLatestAt, DefaultPolicyFor(class), "class %s", class)
	}
}

func bigSaturatingAdd(a, b models.TimeInt) models.TimeInt {
	sum := new(big.Int).Add(big.NewInt(int64(a)), big.NewInt(int64(b)))
	if sum.Cmp(big.NewInt(math.MaxInt64)) > 0 {
		return models.MaxTimeInt
	}
	if sum.Cmp(big.NewInt(math.MinInt64)) < 0 {
		return models.MinTimeInt
	}
	return models.TimeInt(sum.Int64())
}
