// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"fmt"
	"os"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
)

// authOption returns the public key option for an authorized_keys file, or
// nil when path is empty. The file is checked up front so that a typo fails
// Start instead of rejecting every client.
func authOption(path string) (ssh.Option, error) {
	if path == "" {
		return nil, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("authorized keys: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("authorized keys: %s is a directory", path)
	}
	return wish.WithAuthorizedKeys(path), nil
}
