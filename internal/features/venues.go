// Package features assembles per-game feature rows from the upstream
// providers and round-trips them through the flat-file CSV artifacts.
package features

// Venue holds a ballpark's coordinates and its static run-scoring park
// factor (>1 is hitter-friendly).
type Venue struct {
	Lat        float64
	Lon        float64
	ParkFactor float64
}

// VenueTable is an immutable lookup of ballpark metadata keyed by the venue
// name the schedule endpoint reports. Callers inject it so tests can swap
// in a smaller table.
type VenueTable struct {
	venues map[string]Venue
}

// NewVenueTable builds a table from the given entries
func NewVenueTable(venues map[string]Venue) *VenueTable {
	copied := make(map[string]Venue, len(venues))
	for name, v := range venues {
		copied[name] = v
	}
	return &VenueTable{venues: copied}
}

// Lookup returns the venue entry for name
func (t *VenueTable) Lookup(name string) (Venue, bool) {
	v, ok := t.venues[name]
	return v, ok
}

// ParkFactor returns the park factor for name, nil when unknown
func (t *VenueTable) ParkFactor(name string) *float64 {
	v, ok := t.venues[name]
	if !ok {
		return nil
	}
	pf := v.ParkFactor
	return &pf
}

// DefaultVenueTable returns the table of all 30 active parks. Marlins Park
// and Miller Park are aliases kept for seasons before their renames.
func DefaultVenueTable() *VenueTable {
	return NewVenueTable(map[string]Venue{
		"Chase Field":                 {Lat: 33.4458, Lon: -112.0665, ParkFactor: 0.98},
		"Citizens Bank Park":          {Lat: 39.9061, Lon: -75.1665, ParkFactor: 1.05},
		"Citi Field":                  {Lat: 40.7571, Lon: -73.8458, ParkFactor: 1.00},
		"Comerica Park":               {Lat: 42.3390, Lon: -83.0486, ParkFactor: 0.88},
		"Coors Field":                 {Lat: 39.7559, Lon: -104.9942, ParkFactor: 1.26},
		"Dodger Stadium":              {Lat: 34.0739, Lon: -118.2390, ParkFactor: 0.91},
		"Fenway Park":                 {Lat: 42.3467, Lon: -71.0972, ParkFactor: 1.11},
		"Globe Life Field":            {Lat: 32.7518, Lon: -97.0822, ParkFactor: 1.02},
		"Great American Ball Park":    {Lat: 39.0964, Lon: -84.5060, ParkFactor: 1.13},
		"Kauffman Stadium":            {Lat: 39.0514, Lon: -94.4803, ParkFactor: 0.96},
		"LoanDepot Park":              {Lat: 25.7781, Lon: -80.2195, ParkFactor: 1.03},
		"Marlins Park":                {Lat: 25.7781, Lon: -80.2195, ParkFactor: 1.03},
		"Minute Maid Park":            {Lat: 29.7573, Lon: -95.3553, ParkFactor: 1.04},
		"Nationals Park":              {Lat: 38.8730, Lon: -77.0074, ParkFactor: 1.01},
		"Oakland Coliseum":            {Lat: 37.7516, Lon: -122.2005, ParkFactor: 0.90},
		"Oriole Park at Camden Yards": {Lat: 39.2839, Lon: -76.6210, ParkFactor: 0.99},
		"Oracle Park":                 {Lat: 37.7786, Lon: -122.3893, ParkFactor: 0.93},
		"Petco Park":                  {Lat: 32.7076, Lon: -117.1570, ParkFactor: 0.90},
		"PNC Park":                    {Lat: 40.4469, Lon: -80.0057, ParkFactor: 0.89},
		"Progressive Field":           {Lat: 41.4953, Lon: -81.6850, ParkFactor: 0.99},
		"Rogers Centre":               {Lat: 43.6414, Lon: -79.3894, ParkFactor: 0.94},
		"Target Field":                {Lat: 44.9817, Lon: -93.2777, ParkFactor: 0.90},
		"T-Mobile Park":               {Lat: 47.5915, Lon: -122.3325, ParkFactor: 0.85},
		"Truist Park":                 {Lat: 33.8908, Lon: -84.4677, ParkFactor: 0.95},
		"Tropicana Field":             {Lat: 27.7684, Lon: -82.6534, ParkFactor: 0.97},
		"Yankee Stadium":              {Lat: 40.8296, Lon: -73.9262, ParkFactor: 1.03},
		"Angel Stadium":               {Lat: 33.8003, Lon: -117.8827, ParkFactor: 1.07},
		"Guaranteed Rate Field":       {Lat: 41.8308, Lon: -87.6339, ParkFactor: 0.98},
		"American Family Field":       {Lat: 43.0286, Lon: -87.9712, ParkFactor: 0.97},
		"Miller Park":                 {Lat: 43.0286, Lon: -87.9712, ParkFactor: 0.97},
	})
}
