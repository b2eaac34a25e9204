// Package ports defines the boundary interfaces between the Pergola engine
// and its collaborators (validators, distributed lockers). Adapters under
// pkg/adapters provide concrete implementations; the engine only ever depends
// on these contracts.
package ports
