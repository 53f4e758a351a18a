// Package models contains the data structures used throughout the application.
package models

import (
	"time"
)

// ObjectTimes carries creation and modification timestamps and is embedded
// in the persisted document types.
type ObjectTimes struct {
	// CreatedAt is the timestamp when the object was created.
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`

	// UpdatedAt is the timestamp when the object was last updated.
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// NewObjectTimes returns timestamps with both fields set to t.
func NewObjectTimes(t time.Time) ObjectTimes {
	return ObjectTimes{
		CreatedAt: t,
		UpdatedAt: t,
	}
}

// TimeCreate sets both timestamps to the given time.
func (o *ObjectTimes) TimeCreate(t time.Time) {
	o.CreatedAt = t
	o.UpdatedAt = t
}

// TimeUpdate sets the updated timestamp to the given time.
func (o *ObjectTimes) TimeUpdate(t time.Time) {
	o.UpdatedAt = t
}

// UpdateNow sets the updated timestamp to the current time.
func (o *ObjectTimes) UpdateNow() {
	o.TimeUpdate(time.Now())
}
