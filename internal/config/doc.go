// Package config loads settings for the reactive command.
//
// Settings come from reactive.json in the working directory (optional),
// then REACTIVE_* environment variables, then validation:
//
//	{
//	  "addr": ":7070",
//	  "debounce": "10ms",
//	  "seed": "seed.yaml",
//	  "watch": true,
//	  "logLevel": "info",
//	  "metrics": {"namespace": "reactive"}
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    errors.PrintError(os.Stderr, err)
//	    os.Exit(1)
//	}
package config
