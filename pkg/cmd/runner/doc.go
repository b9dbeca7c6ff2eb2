// Package runner executes external build tools (pack, mvn, gradle) with
// their output streamed to the console and captured for the caller.
package runner
