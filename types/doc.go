// Package types defines the shared data model of the script engine:
// structured fault errors and the execution result record returned to
// callers.
//
// Types here are plain values with no behavior beyond construction and
// formatting, so every other package can depend on them without cycles.
package types
