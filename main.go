// SPDX-License-Identifier: MPL-2.0

// watchbind turns the output of a command into an interactive list with
// keybindings that run further commands on the selected lines.
package main

import cmd "github.com/watchbind/watchbind/cmd/watchbind"

func main() {
	cmd.Execute()
}
