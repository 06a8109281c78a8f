//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups test targets (all, unit).
type Test mg.Namespace

// All runs every test in the module.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-v", "./...")
}

// Unit runs the tests that need no database file, skipping the sqlite
// end-to-end suites.
func (Test) Unit() error {
	return sh.RunV(binGo, "test", "-v", "-short", "./...")
}
