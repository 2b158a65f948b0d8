package draft

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EnvelopeVersion is the only schema version readers accept.
const EnvelopeVersion = 1

var ErrInvalidEnvelope = errors.New("invalid autosave envelope")

// Envelope is the versioned wrapper written to durable storage.
type Envelope struct {
	Version   int    `json:"v"`
	Timestamp string `json:"ts"`
	StateJSON string `json:"state_json"`
}

// NewEnvelope wraps a serialized state stamped with at.
func NewEnvelope(state string, at time.Time) Envelope {
	return Envelope{
		Version:   EnvelopeVersion,
		Timestamp: at.UTC().Format(time.RFC3339Nano),
		StateJSON: state,
	}
}

func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Time parses the envelope timestamp.
func (e Envelope) Time() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, e.Timestamp)
}

// DecodeEnvelope parses and validates a stored envelope.
func DecodeEnvelope(data []byte) (Envelope, time.Time, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if e.Version != EnvelopeVersion {
		return Envelope{}, time.Time{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidEnvelope, e.Version)
	}
	if e.Timestamp == "" || e.StateJSON == "" {
		return Envelope{}, time.Time{}, fmt.Errorf("%w: missing fields", ErrInvalidEnvelope)
	}
	ts, err := e.Time()
	if err != nil {
		return Envelope{}, time.Time{}, fmt.Errorf("%w: bad timestamp: %v", ErrInvalidEnvelope, err)
	}
	return e, ts, nil
}
