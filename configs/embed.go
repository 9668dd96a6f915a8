// Package configs provides the embedded configuration template for
// catalogmcp. Embedding keeps `catalogmcp config init` working in every
// distribution, source builds and binary releases alike.
package configs

import _ "embed"

// ConfigTemplate is the annotated example configuration written by
// `catalogmcp config init`.
//
//go:embed config.example.yaml
var ConfigTemplate string
