//go:build mage

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Stats prints Go line counts, production and test, per package directory
// and in total as one JSON object per line.
func Stats() error {
	type counts struct {
		Package string `json:"package"`
		Prod    int    `json:"go_loc_prod"`
		Test    int    `json:"go_loc_test"`
	}
	byDir := map[string]*counts{}

	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			switch path {
			case "vendor", ".git", binaryDir, "magefiles":
				return filepath.SkipDir
			}
			if strings.HasPrefix(filepath.Base(path), "_") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		n, err := countLines(path)
		if err != nil {
			return nil
		}
		dir := filepath.Dir(path)
		c, ok := byDir[dir]
		if !ok {
			c = &counts{Package: dir}
			byDir[dir] = c
		}
		if strings.HasSuffix(path, "_test.go") {
			c.Test += n
		} else {
			c.Prod += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	dirs := make([]string, 0, len(byDir))
	for d := range byDir {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	total := counts{Package: "total"}
	for _, d := range dirs {
		c := byDir[d]
		total.Prod += c.Prod
		total.Test += c.Test
		if err := printJSON(c); err != nil {
			return err
		}
	}
	return printJSON(total)
}

func printJSON(v any) error {
	line, err := json.Marshal(v)
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
