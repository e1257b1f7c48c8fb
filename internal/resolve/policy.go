package resolve

import "github.com/tOgg1/visrange/internal/models"

// DefaultPolicy is what a view class does on a timeline nobody configured.
type DefaultPolicy string

const (
	// PolicyLatestAt queries the latest value at or before the cursor.
	PolicyLatestAt DefaultPolicy = "latest_at"

	// PolicyEverything queries the whole timeline.
	PolicyEverything DefaultPolicy = "everything"
)

// classDefaults is keyed by view class identifier. Classes not listed use
// PolicyLatestAt.
var classDefaults = map[models.ViewClass]DefaultPolicy{
	models.ViewClassTimeSeries: PolicyEverything,
}

// DefaultPolicyFor returns the fallback policy of a view class.
func DefaultPolicyFor(class models.ViewClass) DefaultPolicy {
	if policy, ok := classDefaults[class]; ok {
		return policy
	}
	return PolicyLatestAt
}

// DefaultQueryMode is the query mode of a view class when neither the entity
// nor the view configures the timeline.
func DefaultQueryMode(class models.ViewClass, cursor models.TimeInt) QueryMode {
	switch DefaultPolicyFor(class) {
	case PolicyEverything:
		return RangeMode(ResolveRange(models.EverythingRange(), cursor), SourceClassDefault)
	default:
		return LatestAtMode(cursor, SourceClassDefault)
	}
}
