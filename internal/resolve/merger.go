package resolve

import "github.com/tOgg1/visrange/internal/models"

// ResolveQueryMode picks the query for one entity on one timeline. The first
// tier that configures the timeline wins:
//
//  1. the entity's overrides,
//  2. the view's defaults,
//  3. the default policy of the view class.
//
// Each timeline is resolved on its own; an override for one timeline says
// nothing about another.
func ResolveQueryMode(
	class models.ViewClass,
	viewDefaults models.VisibleTimeRanges,
	entityOverrides models.VisibleTimeRanges,
	timeline string,
	cursor models.TimeInt,
) QueryMode {
	if r, ok := entityOverrides.RangeForTimeline(timeline); ok {
		return withCursor(RangeMode(ResolveRange(r, cursor), SourceEntityOverride), cursor)
	}
	if r, ok := viewDefaults.RangeForTimeline(timeline); ok {
		return withCursor(RangeMode(ResolveRange(r, cursor), SourceViewDefault), cursor)
	}
	return withCursor(DefaultQueryMode(class, cursor), cursor)
}

func withCursor(mode QueryMode, cursor models.TimeInt) QueryMode {
	mode.At = cursor
	return mode
}
