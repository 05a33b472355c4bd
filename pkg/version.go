package dwcatools

var (
	// Version of dwca-tools.
	Version = "v0.1.0"
	// Build timestamp, set during compilation.
	Build = "n/a"
)
