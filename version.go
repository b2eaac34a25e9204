package pergola

// Version is the library version, overridable at build time via
// -ldflags "-X github.com/aretw0/pergola.Version=...".
var Version = "0.3.0"
