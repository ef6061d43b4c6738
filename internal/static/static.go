package static

import _ "embed"

// PolicyMd contains the embedded access policy served at /policy.md.
//
//go:embed policy.md
var PolicyMd string
