// Package runner executes bootstrap plans as sequences of child
// processes, one per step, with fail-fast or keep-going semantics.
//
// Every installer invocation (python, pip, npm and friends) funnels
// through this package, so working-directory handling, environment
// merging, and error classification behave identically across steps.
package runner
