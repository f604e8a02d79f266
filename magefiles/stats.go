//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Stats prints Go lines of code as one JSON record: totals for production
// and test code, and production lines per package directory.
func Stats() error {
	var prodLines, testLines int
	perPkg := map[string]int{}

	err := filepath.WalkDir(".", func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			switch p {
			case "vendor", ".git", binaryDir, "magefiles", "_examples":
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(p, ".go") {
			return nil
		}
		count, countErr := countLines(p)
		if countErr != nil {
			return nil
		}
		if strings.HasSuffix(p, "_test.go") {
			testLines += count
			return nil
		}
		prodLines += count
		perPkg[path.Join(modulePath, filepath.ToSlash(filepath.Dir(p)))] += count
		return nil
	})
	if err != nil {
		return err
	}

	line, err := json.Marshal(map[string]any{
		"go_loc_prod": prodLines,
		"go_loc_test": testLines,
		"go_loc":      prodLines + testLines,
		"packages":    perPkg,
	})
	if err != nil {
		return err
	}
	fmt.Println(string(line))
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
