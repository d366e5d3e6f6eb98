// apps/go-server/internal/imagery/bbox.go
//
// Bounding boxes for imagery queries.
//
// A box is built on an S2 lat/lng rectangle centered on the coordinate rounded to
// four decimal places. Latitude is clamped to the poles by S2 itself. A box that
// crosses the antimeridian is cut at ±180 on the side of the center, since the
// imagery API only accepts min <= max.

package imagery

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
)

// BBox is a min/max lon/lat rectangle in degrees.
type BBox struct {
	MinLon, MinLat, MaxLon, MaxLat float64
}

// Round4 rounds a coordinate to four decimal places (~11 m).
func Round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// NewBBox returns the box of half-width delta degrees around (lat, lon).
func NewBBox(lat, lon, delta float64) BBox {
	center := s2.LatLngFromDegrees(Round4(lat), Round4(lon))
	size := s2.LatLngFromDegrees(2*delta, 2*delta)
	rect := s2.RectFromCenterSize(center, size)

	box := BBox{
		MinLat: rect.Lo().Lat.Degrees(),
		MaxLat: rect.Hi().Lat.Degrees(),
		MinLon: rect.Lo().Lng.Degrees(),
		MaxLon: rect.Hi().Lng.Degrees(),
	}
	switch {
	case rect.Lng.IsFull():
		box.MinLon, box.MaxLon = -180, 180
	case rect.Lng.IsInverted():
		if center.Lng.Degrees() >= 0 {
			box.MaxLon = 180
		} else {
			box.MinLon = -180
		}
	}
	return box
}

// HalfWidth is half the latitude span of the box.
func (b BBox) HalfWidth() float64 {
	return (b.MaxLat - b.MinLat) / 2
}

// String formats the box as "minLon,minLat,maxLon,maxLat" with four decimals,
// the form the imagery API expects.
func (b BBox) String() string {
	return fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}
