// Package strategies wires every build strategy into a build.Table.
package strategies
