// SPDX-License-Identifier: MPL-2.0

// Package config handles watchbind configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/watchbind/config.cue (or the XDG equivalent on Linux,
// ~/Library/Application Support/watchbind/config.cue on macOS, %APPDATA%\watchbind\config.cue
// on Windows), falling back to ./watchbind.cue in the working directory. An explicit
// --config path replaces both. Command-line flags are applied on top as overrides.
//
// Files are validated against the embedded CUE schema (config_schema.cue) before being
// merged into Viper, so errors point at the offending field.
package config
