package orchestrator

import (
	"fmt"
	"strings"
)

// Role is one of the mutually exclusive service identities a process can
// launch as.
type Role int

const (
	RoleUnknown Role = iota
	RoleTask
	RoleWorker
	RolePerformance
)

// roles lists every launchable role in diagnostic order.
var roles = []Role{RoleTask, RoleWorker, RolePerformance}

func (r Role) String() string {
	switch r {
	case RoleTask:
		return "task"
	case RoleWorker:
		return "worker"
	case RolePerformance:
		return "performance"
	default:
		return "unknown"
	}
}

// ServiceName is the tag carried by the role's logger and tracer.
func (r Role) ServiceName() string {
	return r.String() + "-service"
}

// ValidTokens returns the accepted command tokens.
func ValidTokens() []string {
	tokens := make([]string, len(roles))
	for i, r := range roles {
		tokens[i] = r.String()
	}
	return tokens
}

// ParseRole maps a command token to a Role. Matching is exact and
// case-sensitive; there are no aliases and no default.
func ParseRole(token string) (Role, error) {
	for _, r := range roles {
		if token == r.String() {
			return r, nil
		}
	}
	return RoleUnknown, &UnrecognizedRoleError{Token: token}
}

// UnrecognizedRoleError reports a command token that names no role.
type UnrecognizedRoleError struct {
	Token string
}

func (e *UnrecognizedRoleError) Error() string {
	return fmt.Sprintf("%s not recognized (valid commands: %s)", e.Received(), strings.Join(ValidTokens(), ", "))
}

// Received is the token as shown to the user; an absent token reads
// "command".
func (e *UnrecognizedRoleError) Received() string {
	if e.Token == "" {
		return "command"
	}
	return e.Token
}
