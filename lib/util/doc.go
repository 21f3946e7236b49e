// Package util provides small helpers shared by the broker and the command
// line tool, currently seed generation for the broker's random source.
package util
