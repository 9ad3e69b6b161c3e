package domain

import (
	"encoding/json"
	"math"
)

// Coordinate is a geographic position. The wire and storage format is a
// two-element array [longitude, latitude], matching the GeoJSON convention.
type Coordinate struct {
	Lng float64
	Lat float64
}

// ParseCoordinate validates a raw [lng, lat] pair from a request body.
func ParseCoordinate(raw []float64) (Coordinate, error) {
	if len(raw) != 2 {
		return Coordinate{}, ErrInvalidCoordinate
	}
	c := Coordinate{Lng: raw[0], Lat: raw[1]}
	if !c.Valid() {
		return Coordinate{}, ErrInvalidCoordinate
	}
	return c, nil
}

// Valid reports whether both components are finite numbers.
func (c Coordinate) Valid() bool {
	return !math.IsNaN(c.Lng) && !math.IsInf(c.Lng, 0) &&
		!math.IsNaN(c.Lat) && !math.IsInf(c.Lat, 0)
}

// MarshalJSON encodes the coordinate as [lng, lat].
func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lng, c.Lat})
}

// UnmarshalJSON decodes a [lng, lat] array, rejecting anything else.
func (c *Coordinate) UnmarshalJSON(b []byte) error {
	var raw []float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return ErrInvalidCoordinate
	}
	parsed, err := ParseCoordinate(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Point is a named location: a human-readable address label plus coordinates.
type Point struct {
	Address     string     `json:"address"`
	Coordinates Coordinate `json:"coordinates"`
}

// Valid reports whether the point's coordinates are well-formed.
func (p Point) Valid() bool {
	return p.Coordinates.Valid()
}
