package container

import (
	"fmt"
	"strings"
)

// Lifetime controls how long a resolved instance is shared.
type Lifetime int

const (
	// Transient builds a new instance on every resolution.
	Transient Lifetime = iota
	// Singleton builds once and shares the instance for the container's lifetime.
	Singleton
	// Scoped builds once per Scope.
	Scoped
)

func (l Lifetime) String() string {
	switch l {
	case Transient:
		return "transient"
	case Singleton:
		return "singleton"
	case Scoped:
		return "scoped"
	default:
		return fmt.Sprintf("lifetime(%d)", int(l))
	}
}

// ParseLifetime parses "transient", "singleton" or "scoped".
func ParseLifetime(s string) (Lifetime, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "transient", "":
		return Transient, nil
	case "singleton":
		return Singleton, nil
	case "scoped":
		return Scoped, nil
	}
	return Transient, fmt.Errorf("container: unknown lifetime %q", s)
}

// RebindPolicy decides what registering an already-bound key does.
type RebindPolicy int

const (
	// RebindOverwrite replaces the descriptor and keeps any cached singleton.
	RebindOverwrite RebindPolicy = iota
	// RebindRefresh replaces the descriptor and drops the cached singleton.
	RebindRefresh
	// RebindReject refuses the registration with ErrAlreadyRegistered.
	RebindReject
)

func (p RebindPolicy) String() string {
	switch p {
	case RebindOverwrite:
		return "overwrite"
	case RebindRefresh:
		return "refresh"
	case RebindReject:
		return "reject"
	default:
		return fmt.Sprintf("rebind(%d)", int(p))
	}
}

// ParseRebindPolicy parses "overwrite", "refresh" or "reject".
func ParseRebindPolicy(s string) (RebindPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "overwrite", "":
		return RebindOverwrite, nil
	case "refresh":
		return RebindRefresh, nil
	case "reject":
		return RebindReject, nil
	}
	return RebindOverwrite, fmt.Errorf("container: unknown rebind policy %q", s)
}
