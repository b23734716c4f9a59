// README: Common value objects shared across modules.
package types

// ID is an opaque record/user identifier.
type ID string

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}

// IsZero reports whether the point is the (0,0) null-island placeholder the
// mobile client sends when it has no fix.
func (p Point) IsZero() bool {
	return p.Lat == 0 && p.Lng == 0
}

// Money is an integer amount in the smallest currency unit.
type Money struct {
	Amount   int64
	Currency string
}
