package app

// Build information, overridden with -ldflags "-X" at release time, e.g.
// -X github.com/hyperifyio/dagenslunch/internal/app.BuildVersion=1.2.0.
// The defaults identify a local build.
var (
    // BuildVersion is the semantic version of the binary.
    BuildVersion = "0.0.0-dev"
    // BuildCommit is the commit the binary was built from.
    BuildCommit  = "unknown"
    // BuildDate is when the binary was built, ISO-8601.
    BuildDate    = "unknown"
)
