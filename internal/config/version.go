package config

// Version is the leadbook binary version.
// Set at build time via: -ldflags "-X github.com/leadbook/leadbook/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
