// Package types holds the samples and selection events shared by the
// lollipop packages.
package types

import "time"

// Sample is one hourly observation. Values are compared by Time. Pressure is
// unit-less and only meaningful after the display remap.
type Sample struct {
	Time        time.Time `json:"time"`
	Pressure    float64   `json:"pressure"`
	Temperature float64   `json:"temperature"`
	WindSpeed   float64   `json:"windSpeed"`
}

// Gesture names the pointer input that produced a selection change.
type Gesture string

const (
	GestureTap  Gesture = "tap"
	GestureDrag Gesture = "drag"
)

// SelectionEvent is published whenever a session's selection changes.
type SelectionEvent struct {
	SessionID string    `json:"session_id"`
	Gesture   Gesture   `json:"gesture"`
	Selected  bool      `json:"selected"`
	Sample    *Sample   `json:"sample,omitempty"`
	At        time.Time `json:"at"`
}
