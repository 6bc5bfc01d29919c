package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Configuration (E101-E199)
	"E101": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "combine looks for combine.json, combine.yaml or combine.yml in the working directory.",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be read or decoded.",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is outside its allowed range.",
	},
	"E104": {
		Category: CategoryConfig,
		Message:  "Unknown minifier",
		Detail:   "The configured minifier class is not registered.",
	},

	// Minification (E201-E299)
	"E201": {
		Category: CategoryMinify,
		Message:  "Minification failed",
		Detail:   "The minifier rejected the source.",
	},
	"E202": {
		Category: CategoryMinify,
		Message:  "Unknown minification method",
		Detail:   "The minifier does not implement the configured method.",
	},

	// Bundles (E301-E399)
	"E301": {
		Category: CategoryBundle,
		Message:  "Bundle build failed",
		Detail:   "An asset could not be read or the bundle could not be written to the cache directory.",
	},
	"E302": {
		Category: CategoryBundle,
		Message:  "No combinable assets",
		Detail:   "Every requested asset is remote, excluded or missing.",
	},
	"E303": {
		Category: CategoryBundle,
		Message:  "Bundle not found",
		Detail:   "The bundle name is malformed or the bundle is not in the cache directory.",
	},
	"E304": {
		Category: CategoryBundle,
		Message:  "Bundle publish failed",
		Detail:   "The bundle could not be uploaded to object storage.",
	},

	// Server (E401-E499)
	"E401": {
		Category: CategoryServer,
		Message:  "Server failed",
		Detail:   "The HTTP server stopped unexpectedly.",
	},

	// CLI (E501-E599)
	"E501": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
	},
}

// Lookup returns the template for a code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Codes returns all registered error codes.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}
