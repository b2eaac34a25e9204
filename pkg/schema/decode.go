package schema

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode maps a validated argument map onto a typed struct using
// mapstructure tags (falling back to field names). Numeric values coming
// from JSON (float64) are weakly converted so int fields decode cleanly.
//
// Decode assumes args already passed Validate; it reports decoding problems
// (unknown shapes, overflow) rather than validation failures.
func Decode(args map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("failed to decode arguments: %w", err)
	}
	return nil
}
