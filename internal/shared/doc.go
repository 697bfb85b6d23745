// Package shared holds helpers used across alfaapp packages that belong to no
// single layer. The testutil subpackage provides slog capture handlers and
// spreadsheet fixtures for tests.
package shared
