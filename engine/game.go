package engine

import "github.com/spaghettifunk/rainfrog/engine/pipeline"

// Game is the application driven by the engine. Engine is set by New
// before any hook runs.
type Game struct {
	Engine     *Engine
	State      interface{}
	FnOnLoad   OnLoad
	FnOnUpdate Update
	FnOnRender Render
	FnOnResize OnResize
	FnOnUnload Unload
}

// OnLoad acquires the game's device resources and registers its passes.
type OnLoad func() error

type Update func(deltaTime float64) error

// Render returns the camera matrices of the frame about to be drawn.
type Render func(deltaTime float64) (pipeline.Frame, error)

type OnResize func(width, height int32) error

// Unload releases what OnLoad acquired, in reverse order.
type Unload func() error
