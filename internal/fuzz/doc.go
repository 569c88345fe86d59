// Package fuzztests houses Go fuzz harnesses for the script pipeline
// (script file -> bind -> resolve). They guard against panics escaping the
// driver and against broken descriptor post-conditions on arbitrary input.
package fuzztests
