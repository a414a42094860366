package core

type Button uint16

const (
	BUTTON_LEFT Button = iota
	BUTTON_RIGHT
	BUTTON_MIDDLE
	BUTTON_MAX_BUTTONS
)

// Key code definitions, a subset of the virtual key table used by the sandbox.
type KeyCode uint16

const (
	KEY_ENTER  KeyCode = 0x0D
	KEY_TAB    KeyCode = 0x09
	KEY_ESCAPE KeyCode = 0x1B
	KEY_SPACE  KeyCode = 0x20
	KEY_LEFT   KeyCode = 0x25
	KEY_UP     KeyCode = 0x26
	KEY_RIGHT  KeyCode = 0x27
	KEY_DOWN   KeyCode = 0x28
	KEY_A      KeyCode = 0x41
	KEY_D      KeyCode = 0x44
	KEY_E      KeyCode = 0x45
	KEY_P      KeyCode = 0x50
	KEY_Q      KeyCode = 0x51
	KEY_R      KeyCode = 0x52
	KEY_S      KeyCode = 0x53
	KEY_W      KeyCode = 0x57
	KEY_F5     KeyCode = 0x74
	KEY_LSHIFT KeyCode = 0xA0
	KEYS_MAX_KEYS
)

// Mouse state structure
type MouseState struct {
	X       float64
	Y       float64
	Buttons [BUTTON_MAX_BUTTONS]bool
}

// Keyboard state structure
type KeyboardState struct {
	Keys [256]bool
}

// InputState holds current and previous states for keyboard and mouse.
// Previous states are captured by Update at the end of every frame.
type InputState struct {
	KeyboardCurrent  KeyboardState
	KeyboardPrevious KeyboardState
	MouseCurrent     MouseState
	MousePrevious    MouseState

	events *EventBus
}

func NewInputState(events *EventBus) *InputState {
	return &InputState{events: events}
}

func (s *InputState) Update() {
	s.KeyboardPrevious = s.KeyboardCurrent
	s.MousePrevious = s.MouseCurrent
}

func (s *InputState) IsKeyDown(key KeyCode) bool {
	return s.KeyboardCurrent.Keys[key]
}

func (s *InputState) WasKeyDown(key KeyCode) bool {
	return s.KeyboardPrevious.Keys[key]
}

// IsKeyPressed reports a key that went down during this frame.
func (s *InputState) IsKeyPressed(key KeyCode) bool {
	return s.KeyboardCurrent.Keys[key] && !s.KeyboardPrevious.Keys[key]
}

func (s *InputState) ProcessKey(key KeyCode, pressed bool) {
	// Only handle this if the state actually changed.
	if s.KeyboardCurrent.Keys[key] == pressed {
		return
	}
	s.KeyboardCurrent.Keys[key] = pressed

	if s.events == nil {
		return
	}
	code := EVENT_CODE_KEY_RELEASED
	if pressed {
		code = EVENT_CODE_KEY_PRESSED
	}
	s.events.Fire(EventContext{Type: code, Data: &KeyEvent{KeyCode: key}})
}

func (s *InputState) IsButtonDown(button Button) bool {
	return s.MouseCurrent.Buttons[button]
}

func (s *InputState) ProcessButton(button Button, pressed bool) {
	s.MouseCurrent.Buttons[button] = pressed
}

func (s *InputState) ProcessMouseMove(x, y float64) {
	s.MouseCurrent.X = x
	s.MouseCurrent.Y = y
}

// MouseDelta is the cursor movement since the previous frame.
func (s *InputState) MouseDelta() (float64, float64) {
	return s.MouseCurrent.X - s.MousePrevious.X, s.MouseCurrent.Y - s.MousePrevious.Y
}
