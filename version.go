package selector

// Version is the release of the selector module. It is overridden at build time with
// -ldflags "-X github.com/aretw0/selector.Version=...".
var Version = "dev"
