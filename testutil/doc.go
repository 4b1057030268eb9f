// Package testutil provides shared helpers for the engine's tests:
// context helpers with automatic cleanup, plus the mocks and fixtures
// subpackages (scripted ToolRunner doubles and canned capability
// registries).
package testutil
