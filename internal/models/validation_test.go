package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidationErrors_MatchesCauses(t *testing.T) {
	validation := &ValidationErrors{}
	validation.Add("entity", ErrInvalidEntity)
	validation.Add("range", TimeRange{}.Validate())

	err := validation.Err()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidEntity)
	require.ErrorIs(t, err, ErrMissingBoundary)
	require.NotErrorIs(t, err, ErrInvalidViewID)
	require.Equal(t, "entity: entity path is required; range.start: boundary is required; range.end: boundary is required", err.Error())
}

func TestValidationErrors_FieldPaths(t *testing.T) {
	ranges := VisibleTimeRanges{
		{Timeline: "log_tick", Range: EverythingRange()},
		{Timeline: "", Range: TimeRange{Start: Infinite{}}},
	}

	validation := &ValidationErrors{}
	validation.Add("defaults", ranges.Validate())
	validation.Addf("origin", "must start with %q", "/")

	var list *ValidationErrors
	require.True(t, errors.As(validation.Err(), &list))
	require.Equal(t, []string{
		"defaults.ranges[1].timeline",
		"defaults.ranges[1].range.end",
		"origin",
	}, list.Fields())
}

func TestValidationErrors_IndexJoin(t *testing.T) {
	require.Equal(t, "views[0]", joinField("views", "[0]"))
	require.Equal(t, "views.id", joinField("views", "id"))
	require.Equal(t, "id", joinField("", "id"))
	require.Equal(t, "views", joinField("views", ""))
}

func TestValidationErrors_Empty(t *testing.T) {
	var validation *ValidationErrors
	require.NoError(t, validation.Err())
	require.NoError(t, (&ValidationErrors{}).Err())
	validation = &ValidationErrors{}
	validation.Add("ignored", nil)
	require.NoError(t, validation.Err())
}
