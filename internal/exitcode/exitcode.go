// Package exitcode defines the process exit codes used by the CLI.
package exitcode

const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2
	ConfigError     = 3
	APIError        = 4
	DataError       = 5
	FillError       = 6
)
