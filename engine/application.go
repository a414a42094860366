package engine

import (
	"sync/atomic"
	"time"
)

// Window is what the engine needs from the platform layer. The glfw
// platform implements it for the OpenGL backend.
type Window interface {
	// PumpMessages processes pending events and reports whether the window
	// is still open.
	PumpMessages() bool
	// WaitMessages blocks until an event arrives or timeout passes. The
	// engine calls it instead of rendering while minimized.
	WaitMessages(timeout time.Duration)
	SwapBuffers()
	SetTitle(title string)
	Close()
	FramebufferSize() (int32, int32)
	Shutdown() error
}

// HeadlessWindow stands in for a window when rendering with the soft
// device. It stays open for MaxFrames frames, or until closed when
// MaxFrames is zero.
type HeadlessWindow struct {
	Width     int32
	Height    int32
	MaxFrames int

	// WaitDelay is how long WaitMessages sleeps, zero returns at once
	WaitDelay time.Duration

	Title  string
	Swaps  int
	Waits  int
	frames int
	// Close may be called from a signal handler
	closed atomic.Bool
}

func NewHeadlessWindow(width, height int32, maxFrames int) *HeadlessWindow {
	return &HeadlessWindow{Width: width, Height: height, MaxFrames: maxFrames}
}

func (w *HeadlessWindow) PumpMessages() bool {
	if w.closed.Load() {
		return false
	}
	w.frames++
	return w.MaxFrames == 0 || w.frames <= w.MaxFrames
}

func (w *HeadlessWindow) WaitMessages(time.Duration) {
	w.Waits++
	if w.WaitDelay > 0 {
		time.Sleep(w.WaitDelay)
	}
}

func (w *HeadlessWindow) SwapBuffers() {
	w.Swaps++
}

func (w *HeadlessWindow) SetTitle(title string) {
	w.Title = title
}

func (w *HeadlessWindow) Close() {
	w.closed.Store(true)
}

func (w *HeadlessWindow) Closed() bool {
	return w.closed.Load()
}

func (w *HeadlessWindow) FramebufferSize() (int32, int32) {
	return w.Width, w.Height
}

func (w *HeadlessWindow) Shutdown() error {
	w.closed.Store(true)
	return nil
}
