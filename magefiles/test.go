//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups test targets (all, unit, race, smoke).
type Test mg.Namespace

// All runs every test verbosely.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-v", "./...")
}

// Unit runs the package tests without the race detector.
func (Test) Unit() error {
	pkgs, err := packages()
	if err != nil {
		return err
	}
	if len(pkgs) == 0 {
		fmt.Println("No test packages found.")
		return nil
	}
	return sh.RunV(binGo, append([]string{"test", "-count=1"}, pkgs...)...)
}

// Race runs the package tests with the race detector. The resolver caches
// and the collection registry are shared across goroutines.
func (Test) Race() error {
	return sh.RunV(binGo, "test", "-race", "-count=1", "./...")
}

// Smoke builds the binary and runs a short session against scratch
// directories: init, create, inherit, assign, show.
func (Test) Smoke() error {
	mg.Deps(Build)
	dir, err := os.MkdirTemp("", "wardrobe-smoke-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	bin, err := filepath.Abs(binaryPath())
	if err != nil {
		return err
	}
	base := []string{
		"--config-dir", filepath.Join(dir, "config"),
		"--data-dir", filepath.Join(dir, "data"),
	}
	steps := [][]string{
		{"init"},
		{"collection", "create", "Armour"},
		{"collection", "create", "Tall", "--from", "Armour"},
		{"collection", "inherit", "Tall", "Default"},
		{"assign", "yourself", "Tall"},
		{"assign", "individual", "Armour", "--player", "Aria Stone@73"},
		{"collection", "show", "Tall"},
		{"assign"},
	}
	for _, step := range steps {
		fmt.Printf("wardrobe %s\n", strings.Join(step, " "))
		if err := sh.RunV(bin, append(append([]string{}, base...), step...)...); err != nil {
			return fmt.Errorf("wardrobe %s: %w", step[0], err)
		}
	}
	return nil
}

// packages lists the module packages that carry tests, skipping the
// magefiles.
func packages() ([]string, error) {
	out, err := sh.Output(binGo, "list", "-f", "{{if or .TestGoFiles .XTestGoFiles}}{{.ImportPath}}{{end}}", "./...")
	if err != nil {
		return nil, err
	}
	var pkgs []string
	for pkg := range strings.SplitSeq(out, "\n") {
		if pkg != "" && !strings.HasSuffix(pkg, "/magefiles") {
			pkgs = append(pkgs, pkg)
		}
	}
	return pkgs, nil
}
