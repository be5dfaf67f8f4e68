package nabaztag

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Ear positions accepted by the device, inclusive.
const (
	MinEarPosition = 0
	MaxEarPosition = 17
)

// EarsType is the packet type for ear movements.
const EarsType = "ears"

// Command is one ears packet of the pynab protocol.
type Command struct {
	Type      string `json:"type"`
	RequestID int    `json:"request_id"`
	Left      int    `json:"left"`
	Right     int    `json:"right"`
}

// Ears builds an ears command.
func Ears(requestID, left, right int) Command {
	return Command{Type: EarsType, RequestID: requestID, Left: left, Right: right}
}

// Validate checks the packet type and ear ranges.
func (c Command) Validate() error {
	if c.Type != EarsType {
		return fmt.Errorf("request %d: unsupported type %q", c.RequestID, c.Type)
	}
	if c.Left < MinEarPosition || c.Left > MaxEarPosition {
		return fmt.Errorf("request %d: left ear %d out of range %d-%d", c.RequestID, c.Left, MinEarPosition, MaxEarPosition)
	}
	if c.Right < MinEarPosition || c.Right > MaxEarPosition {
		return fmt.Errorf("request %d: right ear %d out of range %d-%d", c.RequestID, c.Right, MinEarPosition, MaxEarPosition)
	}
	return nil
}

// Batch is an ordered command sequence sent over a single connection.
type Batch []Command

// DefaultBatch returns the ear wiggle played when the ISS is overhead.
func DefaultBatch() Batch {
	return Batch{
		Ears(1, 10, 15),
		Ears(2, 5, 0),
	}
}

// Validate checks every command in order.
func (b Batch) Validate() error {
	if len(b) == 0 {
		return fmt.Errorf("empty command batch")
	}
	for _, c := range b {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Encode serializes the batch as newline-terminated JSON objects.
func (b Batch) Encode() ([]byte, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	for _, c := range b {
		line, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("encode request %d: %w", c.RequestID, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
