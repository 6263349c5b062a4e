package main

import (
	"fmt"
	"os"
)

// DieNotNil prints err (prefixed with any message) and exits with
// code 1. It is a no-op when err is nil.
func DieNotNil(err error, message ...string) {
	DieNotNilWithCode(err, 1, message...)
}

// DieNotNilWithCode is DieNotNil with a caller-chosen exit code.
func DieNotNilWithCode(err error, exitCode int, message ...string) {
	if err == nil {
		return
	}
	parts := []interface{}{"ERROR:"}
	for _, p := range message {
		parts = append(parts, p)
	}
	parts = append(parts, err)
	fmt.Fprintln(os.Stderr, parts...)
	os.Exit(exitCode)
}
