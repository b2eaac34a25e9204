// Package middleware provides ready-made engine middleware: structured
// call logging and Prometheus instrumentation. Each constructor returns a
// pergola.Middleware suitable for engine, tool or action scope.
package middleware
