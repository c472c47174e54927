package container

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrServiceNotRegistered  = errors.New("container: service not registered")
	ErrNoActiveScope         = errors.New("container: no active scope")
	ErrScopeClosed           = fmt.Errorf("%w: scope closed", ErrNoActiveScope)
	ErrScopeActive           = errors.New("container: scope id already active")
	ErrMissingImplementation = errors.New("container: no factory, instance or implementation")
	ErrCircularDependency    = errors.New("container: circular dependency")
	ErrAlreadyRegistered     = errors.New("container: service already registered")
	ErrInvalidConstructor    = errors.New("container: invalid constructor")
	ErrTypeMismatch          = errors.New("container: resolved value has unexpected type")
)

// ResolutionError reports which key failed and the chain of keys being built
// when it did.
type ResolutionError struct {
	Key  string
	Path []string
	Err  error
}

func (e *ResolutionError) Error() string {
	if len(e.Path) > 1 {
		return fmt.Sprintf("%v [%s] (via %s)", e.Err, e.Key, strings.Join(e.Path, " -> "))
	}
	return fmt.Sprintf("%v [%s]", e.Err, e.Key)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
