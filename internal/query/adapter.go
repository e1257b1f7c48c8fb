// Package query turns resolved query modes into data fetches.
package query

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/tOgg1/visrange/internal/models"
	"github.com/tOgg1/visrange/internal/resolve"
)

// ErrInvalidRequest is returned for requests without an entity or timeline.
var ErrInvalidRequest = errors.New("invalid query request")

// Sample is one logged value of an entity on a timeline.
type Sample struct {
	Entity   models.EntityPath `json:"entity"`
	Timeline string            `json:"timeline"`
	Time     models.TimeInt    `json:"time"`
	Value    json.RawMessage   `json:"value,omitempty"`
}

// Request asks for the samples selected by a resolved query mode.
type Request struct {
	Entity   models.EntityPath
	Timeline string
	Mode     resolve.QueryMode
}

// Validate checks the request.
func (r Request) Validate() error {
	validation := &models.ValidationErrors{}
	validation.Add("entity", r.Entity.Validate())
	if r.Timeline == "" {
		validation.Add("timeline", models.ErrMissingTimelineName)
	}
	if err := validation.Err(); err != nil {
		return errors.Join(ErrInvalidRequest, err)
	}
	return nil
}

// Adapter fetches data for a resolved query. Implementations must return no
// samples for an empty range.
type Adapter interface {
	Fetch(ctx context.Context, req Request) ([]Sample, error)
}
