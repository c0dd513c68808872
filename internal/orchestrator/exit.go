package orchestrator

import "errors"

// Process exit statuses.
const (
	ExitOK               = 0
	ExitFailure          = 1
	ExitUnrecognizedRole = 2
)

// ExitCode decides the process status for the outcome of Dispatch. The
// launcher performs the actual exit.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var roleErr *UnrecognizedRoleError
	if errors.As(err, &roleErr) {
		return ExitUnrecognizedRole
	}

	// Connection failures and anything a role server returns.
	return ExitFailure
}
