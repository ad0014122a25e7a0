//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups test targets.
type Test mg.Namespace

// Unit runs every package's tests. Contract tests for PostgreSQL, Redis, and
// Neo4j skip themselves unless their LINKNAV_TEST_* variable is set.
func (Test) Unit() error {
	return sh.RunV(binGo, "test", "./...")
}

// Race runs the tests with the race detector.
func (Test) Race() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Contract starts the backing services and runs the tests against them.
func (Test) Contract() error {
	mg.Deps(Services{}.Up)
	env := map[string]string{
		"LINKNAV_TEST_POSTGRES_DSN": postgresDSN,
		"LINKNAV_TEST_REDIS_ADDR":   redisAddr,
		"LINKNAV_TEST_NEO4J_URI":    neo4jURI,
	}
	return sh.RunWithV(env, binGo, "test", "-count=1",
		"./internal/sqlstore/...", "./internal/kvstore/...", "./internal/graphstore/...")
}

// Cover writes a coverage profile to bin/cover.out and prints the summary.
func (Test) Cover() error {
	mg.Deps(ensureBinDir)
	if err := sh.RunV(binGo, "test", "-coverprofile", binaryDir+"/cover.out", "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func", binaryDir+"/cover.out")
}

func ensureBinDir() error {
	return os.MkdirAll(binaryDir, 0o755)
}
