package graph

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Error kinds. Every failure raised by the graph and the inference engines
// matches exactly one of these through errors.Is.
var (
	ErrInvalidStructure = errors.New("invalid structure")
	ErrUnsupported      = errors.New("unsupported construct")
	ErrInconsistent     = errors.New("inconsistent annotation")
)

// NoNode marks an Error that is not tied to a single symbol.
const NoNode = -1

// Error is a typed inference failure.
type Error struct {
	Kind   error
	NodeID int
	Msg    string
}

func (e *Error) Error() string {
	if e.NodeID == NoNode {
		return fmt.Sprintf("%v: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%v: node %d: %s", e.Kind, e.NodeID, e.Msg)
}

// Is matches the error against its kind sentinel.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// Errorf builds an Error of the given kind with a stack trace attached.
func Errorf(kind error, nodeID int, format string, args ...any) error {
	return pkgerrors.WithStack(&Error{Kind: kind, NodeID: nodeID, Msg: fmt.Sprintf(format, args...)})
}

func invalidf(nodeID int, format string, args ...any) error {
	return Errorf(ErrInvalidStructure, nodeID, format, args...)
}

func inconsistentf(nodeID int, format string, args ...any) error {
	return Errorf(ErrInconsistent, nodeID, format, args...)
}
