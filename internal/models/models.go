package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// NowResponse models the JSON payload returned by the iss-now feed.
type NowResponse struct {
	Message   string       `json:"message"`
	Timestamp int64        `json:"timestamp"`
	Position  *RawPosition `json:"iss_position"`
}

// RawPosition is the feed's position entry; coordinates arrive as strings.
type RawPosition struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// Position is a latitude/longitude pair in degrees.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ParsePosition coerces the feed's string coordinates into a Position.
func ParsePosition(lat, lon string) (Position, error) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return Position{}, fmt.Errorf("parse latitude %q: %w", lat, err)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return Position{}, fmt.Errorf("parse longitude %q: %w", lon, err)
	}
	p := Position{Latitude: la, Longitude: lo}
	if !p.Valid() {
		return Position{}, fmt.Errorf("position %s out of range", p)
	}
	return p, nil
}

// Valid reports whether both coordinates are finite and within degree range.
func (p Position) Valid() bool {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

func (p Position) String() string {
	return fmt.Sprintf("(%.4f, %.4f)", p.Latitude, p.Longitude)
}

// DispatchRecord captures one attempt to send commands to the device.
type DispatchRecord struct {
	ID        int64     `json:"id"`
	TS        time.Time `json:"ts"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Target    string    `json:"target"`
	Payload   string    `json:"payload"`
	Response  *string   `json:"response,omitempty"`
	Error     *string   `json:"error,omitempty"`
}

// NewDispatchRecord builds the audit row for one Send outcome. A non-nil
// sendErr stores the error text and leaves Response empty.
func NewDispatchRecord(ts time.Time, pos Position, target, payload string, resp []byte, sendErr error) DispatchRecord {
	rec := DispatchRecord{
		TS:        ts.UTC(),
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		Target:    target,
		Payload:   payload,
	}
	if sendErr != nil {
		msg := sendErr.Error()
		rec.Error = &msg
	} else {
		r := string(resp)
		rec.Response = &r
	}
	return rec
}
