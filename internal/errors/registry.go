package errors

import "sort"

type template struct {
	Category Category
	Message  string
	Detail   string
}

var registry = map[string]template{
	// Configuration (E100-E149)
	"E100": {CategoryConfig, "Configuration file not found", "No idom.yaml was found in the working directory or its parents."},
	"E101": {CategoryConfig, "Invalid configuration file", "The configuration file is not valid YAML or has fields of the wrong type."},
	"E102": {CategoryConfig, "Invalid duration", "Durations are written like 30s, 5m or 1h."},
	"E103": {CategoryConfig, "Invalid address", "The listen address must be host:port or :port."},
	"E104": {CategoryConfig, "Invalid size", "Sizes must be positive."},
	"E105": {CategoryConfig, "Unknown session store", "sessions.store must be memory or sqlite."},
	"E106": {CategoryConfig, "Unknown upload sink", "uploads.sink must be none, disk or s3."},
	"E107": {CategoryConfig, "Missing required field", "A setting the chosen options depend on is empty."},

	// Command line (E150-E199)
	"E150": {CategoryCLI, "Missing argument", "The command needs more arguments."},
	"E151": {CategoryCLI, "Cannot read input", "The input file could not be opened."},
	"E152": {CategoryCLI, "Invalid flag value", "A flag was given a value the command does not accept."},

	// Server (E200-E249)
	"E200": {CategoryServer, "Address in use", "Another process is listening on the configured address."},
	"E201": {CategoryServer, "Server failed", "The server stopped with an error."},

	// Storage (E250-E299)
	"E250": {CategoryStorage, "Cannot open session database", "The SQLite session database could not be opened or migrated."},
	"E251": {CategoryStorage, "Cannot create upload directory", "The disk upload sink needs a writable directory."},

	// Templates (E300-E349)
	"E300": {CategoryTemplate, "Cannot convert HTML", "The HTML could not be parsed into elements."},
}

// Codes returns all registered codes in order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for c := range registry {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the category and message registered for code.
func Lookup(code string) (Category, string, bool) {
	t, ok := registry[code]
	return t.Category, t.Message, ok
}
