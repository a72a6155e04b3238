// Package hal is the contact point between viewports and whatever hosts them:
// a desktop window, a headless ticker or a test driving frames by hand.
package hal

import (
	"errors"
	"image"
)

var ErrNotImplemented = errors.New("not implemented")

// Size is a content box in logical pixels.
type Size struct {
	W, H int
}

// Element is a surface that can be attached to a Container.
type Element interface {
	// Snapshot copies the element's pixels into dst, reallocating it when the
	// size differs, and returns it. It returns nil when there is nothing to show.
	Snapshot(dst *image.RGBA) *image.RGBA
}

// Container is a region of the host's surface that elements attach to.
type Container interface {
	ContentBox() Size
	AppendChild(e Element)
	RemoveChild(e Element) bool
	Contains(e Element) bool
}

// PointerSource is implemented by containers that forward pointer input.
type PointerSource interface {
	Pointer() <-chan PointerEvent
}

// FrameSubscription delivers one value per host frame until cancelled.
type FrameSubscription interface {
	C() <-chan uint64
	Cancel()
}

// ResizeObservation delivers a container's content box whenever it changes.
type ResizeObservation interface {
	C() <-chan Size
	Disconnect()
}

// Host schedules frames and observes container sizes.
type Host interface {
	RequestFrames() FrameSubscription
	ObserveResize(c Container) ResizeObservation
}

// KeyCode is a minimal key identifier.
type KeyCode uint16

const (
	KeyUnknown KeyCode = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyEscape
	KeySpace
)

// KeyEvent is a keyboard event. Text input carries Rune with KeyUnknown.
type KeyEvent struct {
	Code  KeyCode
	Press bool
	Rune  rune
}

// PointerKind identifies a pointer event.
type PointerKind uint8

const (
	PointerMove PointerKind = iota
	PointerDown
	PointerUp
	PointerWheel
)

// PointerEvent is a pointer event in container coordinates.
type PointerEvent struct {
	Kind   PointerKind
	X, Y   float32
	WheelY float32 // notches; positive scrolls up
}
