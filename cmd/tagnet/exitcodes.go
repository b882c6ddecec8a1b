package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (invalid config file or values)
	ExitDataError   = 3 // Data error (malformed input, unknown tag or category)
	ExitAPIError    = 4 // Backend error where no fallback exists (health, cache import)
)
