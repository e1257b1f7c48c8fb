package models

import (
	"errors"
	"testing"
	"time"
)

func TestParseBoundary(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		kind    TimelineKind
		want    Boundary
		wantErr error
	}{
		{name: "infinite", input: "inf", kind: TimelineKindSequence, want: Infinite{}},
		{name: "infinite long form", input: "Infinite", kind: TimelineKindSequence, want: Infinite{}},
		{name: "cursor", input: "cursor", kind: TimelineKindSequence, want: RelativeToCursor{}},
		{name: "relative negative", input: "rel:-500", kind: TimelineKindSequence, want: RelativeToCursor{Offset: -500}},
		{name: "absolute", input: "abs:42", kind: TimelineKindSequence, want: Absolute{Time: 42}},
		{name: "relative duration", input: "rel:-5s", kind: TimelineKindTime, want: RelativeToCursor{Offset: TimeInt(-5 * time.Second)}},
		{name: "duration on sequence timeline", input: "rel:-5s", kind: TimelineKindSequence, wantErr: ErrInvalidBoundary},
		{name: "missing prefix", input: "500", kind: TimelineKindSequence, wantErr: ErrInvalidBoundary},
		{name: "unknown prefix", input: "ago:5", kind: TimelineKindSequence, wantErr: ErrInvalidBoundary},
		{name: "empty", input: "  ", kind: TimelineKindSequence, wantErr: ErrMissingBoundary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBoundary(tt.input, tt.kind)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseBoundary(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBoundary(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("ParseBoundary(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewBoundaryDropsTimeForInfinite(t *testing.T) {
	b, err := NewBoundary(BoundaryKindInfinite, 1234)
	if err != nil {
		t.Fatalf("NewBoundary: %v", err)
	}
	if _, ok := BoundaryTime(b); ok {
		t.Fatalf("infinite boundary should not carry a time value")
	}

	if _, err := NewBoundary("sideways", 0); !errors.Is(err, ErrInvalidBoundaryKind) {
		t.Fatalf("expected ErrInvalidBoundaryKind, got %v", err)
	}
}

func TestBoundaryString(t *testing.T) {
	cases := map[string]Boundary{
		"cursor":  RelativeToCursor{},
		"rel:-10": RelativeToCursor{Offset: -10},
		"abs:7":   Absolute{Time: 7},
		"inf":     Infinite{},
	}
	for want, b := range cases {
		if got := b.String(); got != want {
			t.Errorf("%#v.String() = %q, want %q", b, got, want)
		}
	}
}
