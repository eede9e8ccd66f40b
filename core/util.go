package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// NowFunc returns the current time in UTC. Tests replace it.
var NowFunc = func() time.Time { return time.Now().UTC() } // mockable

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Getwd finds the project root, i.e. the closest parent directory holding a go.mod.
// go test runs inside the package directory, so os.Getwd alone is not enough.
// Outside of a source checkout the current directory is used.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
