//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for the wardrobe project using Mage.
//
// Usage:
//
//	mage build          Compile the wardrobe binary to bin/
//	mage test:all       Run every test
//	mage test:unit      Run tests without the race detector
//	mage test:race      Run tests with the race detector
//	mage test:smoke     Build and drive the binary against a scratch directory
//	mage lint           Run golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install wardrobe to GOPATH/bin
//	mage stats          Print Go LOC per package as JSON
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "wardrobe"
	binaryDir  = "bin"
	cmdDir     = "./cmd/wardrobe"
	modulePath = "github.com/mesh-intelligence/wardrobe"
)

// Build compiles the wardrobe binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", binaryPath(), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	return sh.Copy(filepath.Join(gopath, "bin", binaryName), binaryPath())
}

func binaryPath() string {
	return filepath.Join(binaryDir, binaryName)
}
