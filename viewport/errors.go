package viewport

import "errors"

var (
	// ErrDisposed is returned by operations on a disposed session.
	ErrDisposed = errors.New("viewport: session disposed")
	// ErrSuperseded is returned by SetSrc when a later SetSrc call was issued
	// before this one completed. The later call decides what is displayed.
	ErrSuperseded = errors.New("viewport: load superseded")

	errNilHost      = errors.New("viewport: nil host")
	errNilContainer = errors.New("viewport: nil container")
	errNilLoader    = errors.New("viewport: nil loader")
)
