// Package schema implements argument shape validation for tool actions.
//
// A Schema maps field names to Type validators. Validation aggregates every
// violation found (never just the first) so an agent can fix all its mistakes
// in one retry. Fields are required by default; wrap a type in Optional to
// allow omission.
//
// Validated argument maps can be decoded onto typed structs with Decode.
package schema
