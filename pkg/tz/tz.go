package tz

import "time"

// DefaultZone is the display zone used when none is configured.
const DefaultZone = "Europe/Paris"

// Load returns the named location (DefaultZone when name is empty), or UTC
// with the load error when the zone database does not know it.
func Load(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, err
	}
	return loc, nil
}
