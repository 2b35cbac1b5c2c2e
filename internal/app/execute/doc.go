// SPDX-License-Identifier: MPL-2.0

// Package execute resolves the runtime that watchbind starts commands with.
// It turns the loaded configuration into a ready runtime.Runtime, including
// the dotenv file and the metadata variables every command receives.
package execute
