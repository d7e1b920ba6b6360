// Package locations groups raw review rows by a chosen key and rolls each
// group up into location health statistics.
package locations

import (
	"strings"

	"github.com/sells-group/pulse/internal/model"
)

// KeyFunc computes the grouping key for a row. An empty key means the row
// has no value for the key and is dropped as "Unknown".
type KeyFunc func(model.Row) string

// ByColumn keys rows by the trimmed value of a literal column.
func ByColumn(column string) KeyFunc {
	return func(r model.Row) string {
		return strings.TrimSpace(r.Get(column))
	}
}

// Key presets offered by the upload screen.
const (
	PresetRegion   = "region"
	PresetDivision = "division"
	PresetState    = "state"
	PresetCity     = "city"
	PresetLocation = "location"
)

var presets = map[string]KeyFunc{
	PresetRegion:   ByColumn(model.ColRegion),
	PresetDivision: ByColumn(model.ColDivision),
	PresetState:    ByColumn(model.ColState),
	PresetCity:     cityKey,
	PresetLocation: locationKey,
}

// Presets returns the preset key names in display order.
func Presets() []string {
	return []string{PresetRegion, PresetDivision, PresetState, PresetCity, PresetLocation}
}

// ResolveKey returns the preset named name, or keys by the literal column
// name when no preset matches. Preset names are lowercase.
func ResolveKey(name string) KeyFunc {
	if fn, ok := presets[name]; ok {
		return fn
	}
	return ByColumn(name)
}

// cityKey yields "City, State", or just the city when the state is blank.
func cityKey(r model.Row) string {
	city := strings.TrimSpace(r.Get(model.ColCity))
	if city == "" {
		return ""
	}
	return joinCityState(city, strings.TrimSpace(r.Get(model.ColState)))
}

// locationKey identifies an individual business location. It prefers the
// Location column, then city and state, then the bare business name.
func locationKey(r model.Row) string {
	business := strings.TrimSpace(r.Get(model.ColBusinessName))
	loc := strings.TrimSpace(r.Get(model.ColLocation))
	city := strings.TrimSpace(r.Get(model.ColCity))
	state := strings.TrimSpace(r.Get(model.ColState))

	var place string
	switch {
	case loc != "":
		place = loc
	case city != "" || state != "":
		place = joinCityState(city, state)
	default:
		return business
	}
	if business == "" {
		return place
	}
	return business + " — " + place
}

func joinCityState(city, state string) string {
	switch {
	case state == "":
		return city
	case city == "":
		return state
	default:
		return city + ", " + state
	}
}
