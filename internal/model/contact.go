package model

import (
	"time"
)

// LatLng is a WGS84 coordinate pair in decimal degrees.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// EventInfo carries explicit event metadata attached to a contact at capture
// time (e.g. the user tagged the exchange with a conference name).
type EventInfo struct {
	EventName string `json:"event_name"`
}

// Contact is an immutable pipeline input, owned by the calling system.
// Company, Location and Event are optional signals; the pipeline must
// tolerate any combination of them being absent.
type Contact struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Company     string     `json:"company,omitempty"`
	Location    *LatLng    `json:"location,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	Event       *EventInfo `json:"event_info,omitempty"`
}

// HasLocation reports whether the contact carries usable coordinates.
// A zero-value lat/lng pair is treated as missing: it is the null island
// artifact produced by clients that default unset fields to 0.
func (c Contact) HasLocation() bool {
	if c.Location == nil {
		return false
	}
	return c.Location.Latitude != 0 || c.Location.Longitude != 0
}
