// Package naming provides short deterministic hashes and name checks shared
// by the builders, the validator and the CLI.
package naming

import (
	"crypto/sha1"
	"fmt"
)

// defaultLength defines the hex length of hashes (bits ~ length * 4).
const defaultLength = 6

// ShortHash returns the hex SHA1 prefix of length n (clamped to digest size).
func ShortHash(s string, n int) string {
	sum := sha1.Sum([]byte(s))
	h := fmt.Sprintf("%x", sum)
	if n > len(h) {
		n = len(h)
	}
	return h[:n]
}

// ContentBuildID derives a reproducible build id from input content, so that
// regenerating from an unchanged project yields the same traceability
// annotation.
func ContentBuildID(content []byte) string {
	return "sha1-" + ShortHash(string(content), 12)
}

// EnvironmentName returns `<app>-<env>`, the namespace suffix convention used
// when fanning an application out to several environments.
func EnvironmentName(app, env string) string {
	if app == "" {
		return env
	}
	return fmt.Sprintf("%s-%s", app, env)
}

// DefaultLengthHash returns ShortHash with the package default length.
func DefaultLengthHash(s string) string {
	return ShortHash(s, defaultLength)
}
