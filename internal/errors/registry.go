package errors

// Template defines a registered error type.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// Configuration (R100-R199)
	"R101": {
		Category: CategoryConfig,
		Message:  "Invalid reactive.json",
		Detail:   "The configuration file could not be read or is not valid JSON.",
	},
	"R102": {
		Category: CategoryConfig,
		Message:  "Invalid environment override",
		Detail:   "A REACTIVE_* environment variable could not be parsed.",
	},
	"R103": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range or not recognized.",
	},

	// Seed files (R200-R299)
	"R201": {
		Category: CategorySeed,
		Message:  "Unsupported seed format",
		Detail:   "Seed files are decoded by extension: .json, .yaml, .yml or .toml.",
	},
	"R202": {
		Category: CategorySeed,
		Message:  "Seed file could not be loaded",
		Detail:   "The seed file is missing, unreadable, or does not decode to a table of keys.",
	},

	// CLI and server (R300-R399)
	"R301": {
		Category: CategoryCLI,
		Message:  "Inspector failed",
		Detail:   "The HTTP inspector could not start or stopped with an error.",
	},
	"R302": {
		Category: CategoryCLI,
		Message:  "Output failed",
		Detail:   "The store contents could not be encoded or written.",
	},
}

// Codes returns all registered error codes.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// Lookup returns the template for an error code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
