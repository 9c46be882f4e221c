// Package console is the line-oriented terminal surface of the scheduler.
//
// It prints the prompt, reads one command per line, hands parsed commands
// to the scheduler and prints the resulting records. Parse failures print
// "Bad command" on the error stream; other rejections print a one-line
// diagnostic. Neither stops the loop.
package console
