//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binLint = "golangci-lint"

// Lint runs go vet, then golangci-lint over every package.
func Lint() error {
	mg.Deps(Vet)
	return sh.RunV(binLint, "run", "./...")
}

// Vet runs go vet, including the magefiles build tag.
func Vet() error {
	if err := sh.RunV(binGo, "vet", "./..."); err != nil {
		return fmt.Errorf("go vet: %w", err)
	}
	return sh.RunV(binGo, "vet", "-tags", "mage", "./magefiles/...")
}
