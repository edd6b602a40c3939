package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/go-storefront/internal/events"
)

// MustMarshal panics on values that cannot be encoded; only program-built
// values are passed here.
func MustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func UnmarshalEnvelope(b []byte) (events.Envelope, error) {
	var env events.Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return env, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}
