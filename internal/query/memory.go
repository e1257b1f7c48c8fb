package query

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/tOgg1/visrange/internal/models"
	"github.com/tOgg1/visrange/internal/resolve"
)

type seriesKey struct {
	entity   models.EntityPath
	timeline string
}

// MemoryStore keeps samples in memory, sorted by time per entity and
// timeline.
type MemoryStore struct {
	mu     sync.RWMutex
	series map[seriesKey][]Sample
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{series: make(map[seriesKey][]Sample)}
}

// Add inserts samples, keeping each series ordered by time. Samples with
// equal times keep their insertion order.
func (m *MemoryStore) Add(samples ...Sample) {
	m.mu.Lock()
	defer m.mu.Unlock()

	touched := map[seriesKey]struct{}{}
	for _, sample := range samples {
		key := seriesKey{entity: sample.Entity, timeline: sample.Timeline}
		m.series[key] = append(m.series[key], sample)
		touched[key] = struct{}{}
	}
	for key := range touched {
		series := m.series[key]
		sort.SliceStable(series, func(i, j int) bool { return series[i].Time < series[j].Time })
	}
}

// Len returns the total number of samples.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := 0
	for _, series := range m.series {
		total += len(series)
	}
	return total
}

// Fetch implements Adapter. A range query returns every sample inside the
// range, both ends included. A latest-at query returns the last sample at or
// before the cursor.
func (m *MemoryStore) Fetch(ctx context.Context, req Request) ([]Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	series := m.series[seriesKey{entity: req.Entity, timeline: req.Timeline}]
	switch req.Mode.Kind {
	case resolve.QueryKindRange:
		if req.Mode.Range == nil {
			return nil, fmt.Errorf("%w: range query without range", ErrInvalidRequest)
		}
		return rangeOf(series, *req.Mode.Range), nil
	case resolve.QueryKindLatestAt:
		return latestAt(series, req.Mode.At), nil
	default:
		return nil, fmt.Errorf("%w: unknown query kind %q", ErrInvalidRequest, req.Mode.Kind)
	}
}

func rangeOf(series []Sample, r resolve.Range) []Sample {
	if r.IsEmpty() {
		return nil
	}
	start := sort.Search(len(series), func(i int) bool {
		return resolve.Finite(series[i].Time).Compare(r.Low) >= 0
	})
	end := sort.Search(len(series), func(i int) bool {
		return resolve.Finite(series[i].Time).Compare(r.High) > 0
	})
	if start >= end {
		return nil
	}
	out := make([]Sample, end-start)
	copy(out, series[start:end])
	return out
}

func latestAt(series []Sample, cursor models.TimeInt) []Sample {
	idx := sort.Search(len(series), func(i int) bool { return series[i].Time > cursor })
	if idx == 0 {
		return nil
	}
	return []Sample{series[idx-1]}
}

// LoadJSONL reads one JSON sample per line. Blank lines are skipped.
func (m *MemoryStore) LoadJSONL(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var samples []Sample
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var sample Sample
		if err := json.Unmarshal([]byte(text), &sample); err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		if err := sample.Entity.Validate(); err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		if sample.Timeline == "" {
			return 0, fmt.Errorf("line %d: %w", line, models.ErrMissingTimelineName)
		}
		samples = append(samples, sample)
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to read samples: %w", err)
	}

	m.Add(samples...)
	return len(samples), nil
}
