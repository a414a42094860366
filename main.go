/*
This is the sandbox application that drives the
engine package with the testbed scene
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/rainfrog/engine"
	"github.com/spaghettifunk/rainfrog/engine/config"
	"github.com/spaghettifunk/rainfrog/engine/core"
	"github.com/spaghettifunk/rainfrog/engine/platform"
	"github.com/spaghettifunk/rainfrog/engine/renderer"
	"github.com/spaghettifunk/rainfrog/engine/renderer/opengl"
	"github.com/spaghettifunk/rainfrog/engine/renderer/soft"
	"github.com/spaghettifunk/rainfrog/testbed"
)

func main() {
	configPath := flag.String("config", "config/rainfrog.toml", "path to the sandbox configuration")
	frames := flag.Int("frames", 0, "frames to render with the soft backend, 0 runs until interrupted")
	flag.Parse()

	cfg, found, err := config.LoadOrDefault(*configPath)
	if err != nil {
		core.LogFatal("%s", err)
	}
	if !found {
		core.LogWarn("%s not found, using default configuration", *configPath)
	}
	core.SetLogLevel(core.ParseLogLevel(cfg.Log.Level))

	events := core.NewEventBus()
	input := core.NewInputState(events)

	var (
		window engine.Window
		device renderer.Device
	)
	switch cfg.Renderer.Backend {
	case config.BackendSoft:
		window = engine.NewHeadlessWindow(int32(cfg.Window.Width), int32(cfg.Window.Height), *frames)
		device = soft.New(int32(cfg.Window.Width), int32(cfg.Window.Height))
	default:
		p := platform.New(input, events)
		if err := p.Startup(cfg.Window, cfg.Renderer.Debug); err != nil {
			core.LogFatal("platform startup failed: %s", err)
		}
		gl, err := opengl.New()
		if err != nil {
			_ = p.Shutdown()
			core.LogFatal("opengl init failed: %s", err)
		}
		window, device = p, gl
	}

	tb := testbed.NewTestGame()
	e, err := engine.New(tb.Game, engine.Options{
		Config: cfg,
		Window: window,
		Device: device,
		Input:  input,
		Events: events,
	})
	if err != nil {
		core.LogFatal("%s", err)
	}

	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		core.LogFatal("initialization failed: %s", err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// the loop notices the closed window and returns, shutdown stays on
	// the main thread with the GL context
	go func() {
		<-sigCh
		window.Close()
	}()

	runErr := e.Run()
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown: %s", err)
	}
	if runErr != nil {
		core.LogFatal("%s", runErr)
	}
}
