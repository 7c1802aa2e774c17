//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Demo runs the demo named by $DEMO, shading by default.
func (Run) Demo() error {
	name := os.Getenv("DEMO")
	if name == "" {
		name = "shading"
	}
	fmt.Printf("Run demo %s...\n", name)
	_, err := executeCmd("go", withArgs("run", "./cmd/rtr", "-demo", name, "-windowed"), withStream())
	return err
}
