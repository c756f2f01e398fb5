package domain

import (
	"fmt"
	"time"
)

// StateUnknown is the reading state when no danger level could be derived.
const StateUnknown = "unknown"

// Icon is the fixed icon identifier attached to every reading.
const Icon = "mdi:fire"

// Reading is one refresh result as handed to the presentation layer.
type Reading struct {
	Name        string     `json:"name"`
	State       string     `json:"state"`
	Icon        string     `json:"icon"`
	Available   bool       `json:"available"`
	ForceUpdate bool       `json:"force_update"`
	Attributes  Attributes `json:"attributes"`
	RefreshedAt time.Time  `json:"refreshed_at"`
}

// ReadingName returns the display name of the reading for a district.
func ReadingName(district string) string {
	return fmt.Sprintf("Fire Danger in %s", district)
}
