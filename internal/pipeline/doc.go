// Package pipeline is the task graph of the vendor build: named leaf
// tasks plus series and parallel groups that compose them.
//
// A Graph is assembled once per invocation, validated (unknown members,
// cycles), and then run against a target name. Execution is fail-fast:
// a series group stops at its first failing member, and a parallel group
// cancels its siblings and reports the first failure.
package pipeline
