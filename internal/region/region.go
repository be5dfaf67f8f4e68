package region

import (
	"github.com/golang/geo/s2"
	"github.com/sirupsen/logrus"

	"github.com/02loveslollipop/iss-ears/internal/models"
)

// Box is a latitude/longitude rectangle in degrees, closed on every edge.
type Box struct {
	Name   string
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
}

// France approximates metropolitan France.
var France = Box{Name: "France", LatMin: 41.0, LatMax: 51.0, LonMin: -5.0, LonMax: 9.0}

// Rect returns the box as an s2 rectangle.
func (b Box) Rect() s2.Rect {
	return s2.RectFromLatLng(s2.LatLngFromDegrees(b.LatMin, b.LonMin)).
		AddPoint(s2.LatLngFromDegrees(b.LatMax, b.LonMax))
}

// Contains reports whether p lies inside the box. Positions that are not
// finite or fall outside degree range are never inside.
func (b Box) Contains(p models.Position) bool {
	if !p.Valid() {
		return false
	}
	return b.Rect().ContainsLatLng(s2.LatLngFromDegrees(p.Latitude, p.Longitude))
}

// Classify runs Contains and logs the outcome.
func Classify(logger *logrus.Logger, b Box, p models.Position) bool {
	if !p.Valid() {
		logger.WithFields(logrus.Fields{
			"region":   b.Name,
			"position": p.String(),
		}).Warn("Position not usable for classification")
		return false
	}

	inside := b.Contains(p)
	entry := logger.WithFields(logrus.Fields{
		"region":    b.Name,
		"latitude":  p.Latitude,
		"longitude": p.Longitude,
		"inside":    inside,
	})
	if inside {
		entry.Infof("ISS is currently over %s", b.Name)
	} else {
		entry.Infof("ISS is not over %s", b.Name)
	}
	return inside
}
