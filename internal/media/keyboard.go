package media

import "sync"

// Key is a key the viewer reacts to.
type Key int

const (
	KeyLeft Key = iota + 1
	KeyRight
	KeyEscape
)

// String returns the key name.
func (k Key) String() string {
	switch k {
	case KeyLeft:
		return "left"
	case KeyRight:
		return "right"
	case KeyEscape:
		return "escape"
	default:
		return "unknown"
	}
}

// KeyHandler receives dispatched keys.
type KeyHandler func(Key)

// Keyboard dispatches key presses to registered listeners.
type Keyboard struct {
	mu       sync.Mutex
	handlers map[uint64]KeyHandler
	order    []uint64
	nextID   uint64
}

// NewKeyboard creates a keyboard with no listeners.
func NewKeyboard() *Keyboard {
	return &Keyboard{handlers: make(map[uint64]KeyHandler)}
}

// Register adds handler and returns a func that removes it. The returned
// func may be called more than once.
func (k *Keyboard) Register(handler KeyHandler) (dispose func()) {
	k.mu.Lock()
	k.nextID++
	id := k.nextID
	k.handlers[id] = handler
	k.order = append(k.order, id)
	k.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			k.mu.Lock()
			defer k.mu.Unlock()
			delete(k.handlers, id)
			for i, v := range k.order {
				if v == id {
					k.order = append(k.order[:i], k.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Dispatch delivers key to every listener in registration order.
func (k *Keyboard) Dispatch(key Key) {
	k.mu.Lock()
	handlers := make([]KeyHandler, 0, len(k.order))
	for _, id := range k.order {
		handlers = append(handlers, k.handlers[id])
	}
	k.mu.Unlock()

	for _, h := range handlers {
		h(key)
	}
}

// Listeners reports how many handlers are registered.
func (k *Keyboard) Listeners() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.handlers)
}
