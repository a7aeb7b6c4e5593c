package component

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the framework. Wrap with context using
// fmt.Errorf("...: %w", ...) and test with errors.Is.
var (
	// ErrNotFound is returned when a component name is absent where one
	// is required.
	ErrNotFound = errors.New("component not found")

	// ErrMissingRequired is returned at load time when a required
	// reference does not resolve in the registry.
	ErrMissingRequired = errors.New("missing required component")

	// ErrDuplicateExtensionPoint is returned when an extension point is
	// re-registered with a different shape.
	ErrDuplicateExtensionPoint = errors.New("duplicate extension point")

	// ErrUnknownExtensionPoint is returned when triggering a point that
	// was never registered.
	ErrUnknownExtensionPoint = errors.New("unknown extension point")

	// ErrDuplicatePlugin is returned when a plugin name is already taken.
	ErrDuplicatePlugin = errors.New("duplicate plugin")
)

// NotFoundError names the component and the attempted operation so failures
// read as "compile: component not found: user-schema".
type NotFoundError struct {
	Name string
	Op   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: component not found: %s", e.Op, e.Name)
}

// Unwrap makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFound builds a NotFoundError for the given operation and name.
func NewNotFound(op, name string) error {
	return &NotFoundError{Name: name, Op: op}
}

// MissingRequiredError reports an unsatisfied required reference during a
// system load.
type MissingRequiredError struct {
	System string
	Ref    string
}

func (e *MissingRequiredError) Error() string {
	return fmt.Sprintf("load %s: missing required component: %s", e.System, e.Ref)
}

func (e *MissingRequiredError) Unwrap() error { return ErrMissingRequired }
