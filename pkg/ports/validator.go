package ports

// ArgumentValidator checks candidate arguments against an action's declared
// shape. The shape is opaque to the engine; each implementation documents the
// concrete type it accepts (pkg/schema takes schema.Schema, the OpenAPI
// adapter takes *openapi3.Schema).
//
// On success it returns the validated, possibly normalized argument map.
// On failure the error message must aggregate every violated field, not just
// the first.
type ArgumentValidator interface {
	Validate(shape any, args map[string]any) (map[string]any, error)
}
