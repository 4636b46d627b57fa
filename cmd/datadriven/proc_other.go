//go:build !unix

package main

import "os/exec"

// killProcessGroup is a no-op; cancellation kills the direct child only
// and WaitDelay bounds the wait for its descendants.
func killProcessGroup(cmd *exec.Cmd) {}
