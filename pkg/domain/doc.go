// Package domain contains the core value types exchanged between the Pergola
// engine and its hosts: responses, content blocks, progress events, lifecycle
// hooks and the error taxonomy.
//
// Types in this package are plain data. They carry no behavior beyond
// construction and formatting, so adapters (HTTP, MCP, CLI) can depend on them
// without pulling in the engine itself.
package domain
