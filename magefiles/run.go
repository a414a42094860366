//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds and starts the sandbox with the OpenGL backend.
func (Run) Sandbox() error {
	mg.Deps(Build.Sandbox)
	fmt.Println("Run sandbox...")
	_, err := executeCmd("bin/rainfrog", withArgs("-config", "config/rainfrog.toml"), withStream())
	return err
}

// Renders a few frames with the soft backend and exits.
func (Run) Headless() error {
	mg.Deps(Build.Sandbox)
	_, err := executeCmd("bin/rainfrog", withArgs("-config", "config/headless.toml", "-frames", "30"), withStream())
	return err
}
