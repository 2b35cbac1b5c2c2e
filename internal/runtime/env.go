// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
)

// buildEnv returns the host environment plus extra, with LINES replaced by
// the selected lines. An inherited LINES (usually the terminal height) is
// always dropped so that commands can tell "nothing passed" from a value.
func buildEnv(extra []string, lines *string) []string {
	host := os.Environ()
	env := make([]string, 0, len(host)+len(extra)+1)
	for _, kv := range host {
		if key, _, _ := strings.Cut(kv, "="); key == LinesEnvVar {
			continue
		}
		env = append(env, kv)
	}
	for _, kv := range extra {
		if key, _, _ := strings.Cut(kv, "="); key == LinesEnvVar {
			continue
		}
		env = append(env, kv)
	}
	if lines != nil {
		env = append(env, LinesEnvVar+"="+*lines)
	}
	return env
}

// LoadEnvFile reads KEY=VALUE pairs from a dotenv file, sorted by key.
func LoadEnvFile(path string) ([]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	env := make([]string, 0, len(vars))
	for _, key := range slices.Sorted(maps.Keys(vars)) {
		env = append(env, key+"="+vars[key])
	}
	return env, nil
}
