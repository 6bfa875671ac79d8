// Package errors provides coded, actionable errors for the reactive CLI.
//
// Each code maps to a registered template with a short message and a longer
// explanation:
//
//   - R1xx: configuration (reactive.json, environment overrides)
//   - R2xx: seed files
//   - R3xx: command line and server startup
//
// # Usage
//
//	err := errors.New("R201").
//	    WithFile("seed.yaml").
//	    WithSuggestion("Use a .json, .yaml, .yml or .toml file").
//	    Wrap(cause)
//
//	errors.PrintError(err)
//
// Errors support errors.Is/As through Unwrap, so the wrapped cause stays
// inspectable.
package errors
