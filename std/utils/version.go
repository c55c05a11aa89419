package utils

// NDNdVersion is the version string reported by ndnd binaries and status
// queries.
const NDNdVersion = "ndnd-dev"
