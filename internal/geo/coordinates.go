package geo

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrInvalidFormat is returned when text is not "lat, lng".
	ErrInvalidFormat = errors.New("coordinates must be in the form \"lat, lng\"")
	// ErrOutOfRange is returned when a component is outside the valid range.
	ErrOutOfRange = errors.New("coordinates out of range")
)

// DefaultCenter is where the map opens when a record has no coordinates.
var DefaultCenter = Coordinates{Lat: 0.3516, Lng: -78.1225}

var coordinatePattern = regexp.MustCompile(`^(-?\d+(?:\.\d*)?)\s*,\s*(-?\d+(?:\.\d*)?)$`)

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Valid reports whether both components are within range.
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// String renders the pair the way the registry stores it.
func (c Coordinates) String() string {
	return Format(c.Lat, c.Lng)
}

// Parse reads "lat, lng" text and checks both ranges.
func Parse(text string) (Coordinates, error) {
	m := coordinatePattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return Coordinates{}, ErrInvalidFormat
	}

	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("latitude: %w", ErrInvalidFormat)
	}
	lng, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("longitude: %w", ErrInvalidFormat)
	}

	c := Coordinates{Lat: lat, Lng: lng}
	if lat < -90 || lat > 90 {
		return c, fmt.Errorf("latitude %v must be between -90 and 90: %w", lat, ErrOutOfRange)
	}
	if lng < -180 || lng > 180 {
		return c, fmt.Errorf("longitude %v must be between -180 and 180: %w", lng, ErrOutOfRange)
	}
	return c, nil
}

// Format renders lat/lng with six decimals, separated by ", ".
func Format(lat, lng float64) string {
	return fmt.Sprintf("%.6f, %.6f", lat, lng)
}

// Sanitize collapses whitespace around the separator, as registration does
// before submitting.
func Sanitize(text string) string {
	parts := strings.Split(strings.TrimSpace(text), ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, ", ")
}
