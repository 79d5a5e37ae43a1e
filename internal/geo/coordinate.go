package geo

import "fmt"

// Coordinate is an immutable WGS 84 position with a horizontal accuracy
// radius in meters.
type Coordinate struct {
	latitude  float64
	longitude float64
	accuracy  float64
}

// New validates and constructs a Coordinate. Boundary values (±90, ±180, 0)
// are valid.
func New(latitude, longitude, accuracy float64) (Coordinate, error) {
	if latitude < -90 || latitude > 90 {
		return Coordinate{}, fmt.Errorf("latitude %v out of range [-90, 90]", latitude)
	}
	if longitude < -180 || longitude > 180 {
		return Coordinate{}, fmt.Errorf("longitude %v out of range [-180, 180]", longitude)
	}
	if accuracy < 0 {
		return Coordinate{}, fmt.Errorf("accuracy %v must be >= 0 meters", accuracy)
	}
	return Coordinate{latitude: latitude, longitude: longitude, accuracy: accuracy}, nil
}

func (c Coordinate) Latitude() float64  { return c.latitude }
func (c Coordinate) Longitude() float64 { return c.longitude }
func (c Coordinate) Accuracy() float64  { return c.accuracy }

func (c Coordinate) String() string {
	return fmt.Sprintf("(%v, %v) ±%vm", c.latitude, c.longitude, c.accuracy)
}
