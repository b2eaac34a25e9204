package schema

import "sort"

// Schema is a map of field names to their expected types.
// Example: {"name": String(), "retries": Int(), "tags": Slice(String())}
//
// Fields are required unless wrapped in Optional.
type Schema map[string]Type

// Validate checks if args conform to the schema.
// It returns an *AggregateError carrying every validation failure found,
// never just the first. A nil or empty schema validates anything: actions
// without a declared shape opt out of validation entirely.
func Validate(s Schema, args map[string]any) error {
	errs := validateAt("", s, args)
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func validateAt(prefix string, s Schema, args map[string]any) []*FieldError {
	if len(s) == 0 {
		return nil
	}

	var errs []*FieldError

	// Deterministic order so aggregated messages are stable across runs.
	for _, field := range sortedKeys(s) {
		fieldType := s[field]
		path := field
		if prefix != "" {
			path = prefix + "." + field
		}

		value, exists := args[field]
		if !exists {
			if _, ok := fieldType.(*OptionalType); ok {
				continue
			}
			errs = append(errs, &FieldError{Path: path, Reason: "required"})
			continue
		}

		if opt, ok := fieldType.(*OptionalType); ok {
			fieldType = opt.Inner()
		}

		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &FieldError{Path: path, Reason: err.Error(), Value: value})
			continue
		}

		// Descend into nested objects so violations carry full paths.
		if obj, ok := fieldType.(*ObjectType); ok && len(obj.Fields()) > 0 {
			nested, _ := value.(map[string]any)
			errs = append(errs, validateAt(path, obj.Fields(), nested)...)
		}
	}

	return errs
}

func sortedKeys(s Schema) []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
