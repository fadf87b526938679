package chat

import "errors"

var (
	// ErrNotImplemented is returned by entry points that belong to the caller, such as ChatREPL.
	ErrNotImplemented = errors.New("not implemented")
	// ErrEmptyMessage is returned when a turn is started with blank user text.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrUnknownMode is returned by ParseMode for unrecognised engine modes.
	ErrUnknownMode = errors.New("unknown chat mode")
	// ErrMissingDependency is returned by the factory when a mode's collaborator is nil.
	ErrMissingDependency = errors.New("missing dependency")
)
