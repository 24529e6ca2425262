package domain

import (
	"fmt"
	"strings"
)

// FailMode selects how the client reacts to a failed RPC attempt.
type FailMode int

const (
	FailModeFailsafe FailMode = iota // retry transient errors on the same server
	FailModeFailover                 // move on to the next server of the same type
	FailModeFailback                 // deferred redelivery (unsupported)
	FailModeFailfast                 // report the failure immediately
)

func (m FailMode) String() string {
	switch m {
	case FailModeFailsafe:
		return "failsafe"
	case FailModeFailover:
		return "failover"
	case FailModeFailback:
		return "failback"
	case FailModeFailfast:
		return "failfast"
	default:
		return fmt.Sprintf("failmode(%d)", int(m))
	}
}

// ParseFailMode parses a configured fail mode. An empty string selects failsafe.
func ParseFailMode(s string) (FailMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "failsafe":
		return FailModeFailsafe, nil
	case "failover":
		return FailModeFailover, nil
	case "failback":
		return FailModeFailback, nil
	case "failfast":
		return FailModeFailfast, nil
	default:
		return FailModeFailsafe, fmt.Errorf("unknown fail mode %q", s)
	}
}
