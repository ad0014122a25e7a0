//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Build targets for linknav.
//
//	mage build              Compile linknav to bin/
//	mage install            Install linknav to GOPATH/bin
//	mage clean              Remove build artifacts
//	mage lint               Run golangci-lint
//	mage test:unit          Run tests; networked backends are skipped
//	mage test:contract      Start backing services and run every test
//	mage services:up        Start PostgreSQL, Redis, and Neo4j containers
//	mage services:down      Remove them
//	mage stats              Print Go line counts per package
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "linknav"
	binaryDir  = "bin"
	cmdDir     = "./cmd/linknav"
)

// Build compiles the linknav binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
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
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
