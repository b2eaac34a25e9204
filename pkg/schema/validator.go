package schema

import "fmt"

// Validator adapts this package to the ports.ArgumentValidator contract.
// The shape must be a Schema; on success the original argument map is
// returned unchanged (native schemas do not normalize values).
type Validator struct{}

// NewValidator returns the native schema validator.
func NewValidator() *Validator { return &Validator{} }

// Validate implements ports.ArgumentValidator.
func (v *Validator) Validate(shape any, args map[string]any) (map[string]any, error) {
	if shape == nil {
		return args, nil
	}
	s, ok := shape.(Schema)
	if !ok {
		return nil, fmt.Errorf("unsupported shape type %T (want schema.Schema)", shape)
	}
	if err := Validate(s, args); err != nil {
		return nil, err
	}
	return args, nil
}
