package models

import (
	"errors"
	"strings"
	"time"
)

// ViewClass is the stable identifier of a view kind. It is part of the
// saved-layout contract and must not change between versions.
type ViewClass string

const (
	ViewClassTimeSeries   ViewClass = "TimeSeries"
	ViewClassSpatial2D    ViewClass = "2D"
	ViewClassSpatial3D    ViewClass = "3D"
	ViewClassTextLog      ViewClass = "TextLog"
	ViewClassTextDocument ViewClass = "TextDocument"
	ViewClassBarChart     ViewClass = "BarChart"
	ViewClassTensor       ViewClass = "Tensor"
)

// KnownViewClasses lists the view classes shipped with visrange.
var KnownViewClasses = []ViewClass{
	ViewClassTimeSeries,
	ViewClassSpatial2D,
	ViewClassSpatial3D,
	ViewClassTextLog,
	ViewClassTextDocument,
	ViewClassBarChart,
	ViewClassTensor,
}

// View errors.
var (
	ErrInvalidViewClass = errors.New("view class is required")
	ErrInvalidViewID    = errors.New("view id is required")
	ErrInvalidEntity    = errors.New("entity path is required")
)

// IsKnown reports whether the class is one of KnownViewClasses.
func (c ViewClass) IsKnown() bool {
	for _, known := range KnownViewClasses {
		if c == known {
			return true
		}
	}
	return false
}

// EntityPath identifies a logged entity, e.g. "/world/points".
type EntityPath string

// Validate checks that the path is non-empty.
func (p EntityPath) Validate() error {
	if strings.TrimSpace(string(p)) == "" {
		return ErrInvalidEntity
	}
	return nil
}

// View is one configured view in a layout.
type View struct {
	// ID is the unique identifier for the view.
	ID string `json:"id" yaml:"id"`

	// Class selects the default range policy.
	Class ViewClass `json:"class" yaml:"class"`

	// Name is the display name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Origin is the entity path the view is rooted at.
	Origin EntityPath `json:"origin,omitempty" yaml:"origin,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// Validate checks the view.
func (v *View) Validate() error {
	validation := &ValidationErrors{}
	if strings.TrimSpace(v.ID) == "" {
		validation.Add("id", ErrInvalidViewID)
	}
	if strings.TrimSpace(string(v.Class)) == "" {
		validation.Add("class", ErrInvalidViewClass)
	}
	return validation.Err()
}

// DisplayName returns Name, falling back to a short form of the ID.
func (v *View) DisplayName() string {
	if v.Name != "" {
		return v.Name
	}
	if len(v.ID) > 8 {
		return v.ID[:8]
	}
	return v.ID
}
