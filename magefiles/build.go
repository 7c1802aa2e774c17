//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

var binaries = []string{"rtr", "meshtool"}

// All builds every command into bin/.
func (Build) All() error {
	for _, name := range binaries {
		out := filepath.Join("bin", name)
		if _, err := executeCmd("go", withArgs("build", "-o", out, "./cmd/"+name), withStream()); err != nil {
			return err
		}
	}
	return nil
}

// Test runs the unit tests.
func Test() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}
