package exitcodes

// Exit codes for the unlink-shred command line tools.
// These codes form the operational contract with scripts and operators
const (
	Success       = 0 // Every path removed (or, in dry-run, evaluated)
	RemoveFailed  = 1 // At least one removal returned an error
	InvalidConfig = 2 // Configuration file or flags invalid
	ResolveFailed = 3 // Real unlink implementation unavailable
	RuntimeError  = 4 // Runtime error during execution
)
