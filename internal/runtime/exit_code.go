// SPDX-License-Identifier: MPL-2.0

package runtime

import "strconv"

// ExitCode represents a process exit status code. The zero value means
// success; -1 means the process was terminated by a signal.
type ExitCode int

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
