package core

// System internal event codes. Application should use codes beyond 255.
type EventCode uint16

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT EventCode = 0x01
	// Keyboard key pressed. Data: *KeyEvent
	EVENT_CODE_KEY_PRESSED EventCode = 0x02
	// Keyboard key released. Data: *KeyEvent
	EVENT_CODE_KEY_RELEASED EventCode = 0x03
	// Framebuffer resized/minimized by the OS. Data: *ResizeEvent
	EVENT_CODE_RESIZED EventCode = 0x08
	// A watched asset changed on disk. Data: *AssetEvent
	EVENT_CODE_ASSET_CHANGED EventCode = 0x09

	MAX_EVENT_CODE EventCode = 0xFF
)

type KeyEvent struct {
	KeyCode KeyCode
}

type ResizeEvent struct {
	Width  uint32
	Height uint32
}

type AssetEvent struct {
	Path string
}

type EventContext struct {
	Type EventCode
	Data interface{}
}

// Should return true if handled.
type FnOnEvent func(context EventContext) bool

// EventBus dispatches events synchronously on the caller's goroutine.
// Listeners registered for the same code run in registration order until
// one of them reports the event as handled.
type EventBus struct {
	registered map[EventCode][]FnOnEvent
}

func NewEventBus() *EventBus {
	return &EventBus{registered: make(map[EventCode][]FnOnEvent)}
}

func (b *EventBus) Register(code EventCode, onEvent FnOnEvent) {
	b.registered[code] = append(b.registered[code], onEvent)
}

// Fire returns true if a listener handled the event.
func (b *EventBus) Fire(context EventContext) bool {
	for _, callback := range b.registered[context.Type] {
		if callback(context) {
			return true
		}
	}
	return false
}

// Reset drops every listener.
func (b *EventBus) Reset() {
	b.registered = make(map[EventCode][]FnOnEvent)
}
