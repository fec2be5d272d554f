package media

import (
	"errors"
)

var (
	// ErrEmptyPhotos is returned when opening the viewer with nothing to show.
	ErrEmptyPhotos = errors.New("viewer needs at least one photo")

	// ErrIndexOutOfRange is returned when the start index is outside the photos.
	ErrIndexOutOfRange = errors.New("start index out of range")
)

// Viewer is a modal, circular browser over an ordered set of items. While
// open it listens on its Keyboard: left shows the previous item, right the
// next one and escape closes it.
type Viewer[T any] struct {
	keyboard *Keyboard

	items   []T
	index   int
	open    bool
	dispose func()
}

// NewViewer creates a closed viewer bound to keyboard.
func NewViewer[T any](keyboard *Keyboard) *Viewer[T] {
	return &Viewer[T]{keyboard: keyboard}
}

// Open shows items starting at start. An invalid request leaves the viewer
// untouched.
func (v *Viewer[T]) Open(items []T, start int) error {
	if len(items) == 0 {
		return ErrEmptyPhotos
	}
	if start < 0 || start >= len(items) {
		return ErrIndexOutOfRange
	}

	v.release()
	v.items = append([]T(nil), items...)
	v.index = start
	v.open = true
	if v.keyboard != nil {
		v.dispose = v.keyboard.Register(v.handleKey)
	}
	return nil
}

// Close hides the viewer, drops its items and stops listening for keys.
func (v *Viewer[T]) Close() {
	v.release()
	v.open = false
	v.items = nil
	v.index = 0
}

// Next advances one item, wrapping from the last to the first.
func (v *Viewer[T]) Next() {
	if n := len(v.items); v.open && n > 0 {
		v.index = (v.index + 1) % n
	}
}

// Previous goes back one item, wrapping from the first to the last.
func (v *Viewer[T]) Previous() {
	if n := len(v.items); v.open && n > 0 {
		v.index = (v.index - 1 + n) % n
	}
}

// IsOpen reports whether the viewer is showing.
func (v *Viewer[T]) IsOpen() bool { return v.open }

// Index returns the position of the current item.
func (v *Viewer[T]) Index() int { return v.index }

// Len returns the number of items being browsed.
func (v *Viewer[T]) Len() int { return len(v.items) }

// Current returns the item on display.
func (v *Viewer[T]) Current() (T, bool) {
	var zero T
	if !v.open || len(v.items) == 0 {
		return zero, false
	}
	return v.items[v.index], true
}

func (v *Viewer[T]) handleKey(key Key) {
	if !v.open {
		return
	}
	switch key {
	case KeyEscape:
		v.Close()
	case KeyLeft:
		if len(v.items) > 1 {
			v.Previous()
		}
	case KeyRight:
		if len(v.items) > 1 {
			v.Next()
		}
	}
}

func (v *Viewer[T]) release() {
	if v.dispose != nil {
		v.dispose()
		v.dispose = nil
	}
}
