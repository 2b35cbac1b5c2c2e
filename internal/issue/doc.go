// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable, user-facing errors.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints. Errors may link to a catalog Issue whose Markdown guidance
// is rendered with glamour in verbose output.
package issue
