// File: pipeline/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package pipeline implements the directional chain-of-responsibility
// dispatch core: an ordered chain of handler contexts bounded by fixed
// head and tail sentinels. Inbound events propagate head to tail,
// outbound operations tail to head; dispatch skips contexts whose
// handler lacks the relevant capability axis and routes around removed
// nodes.
//
// The head sentinel is the transport boundary: it performs the terminal
// action for every outbound operation and completes the operation's
// promise exactly once. The tail sentinel terminates inbound
// propagation, logging unhandled errors and releasing dropped payloads.
//
// Chain mutation is safe from any goroutine; handler callbacks run on
// the pipeline's executor, strictly ordered and never concurrent with
// themselves.
package pipeline
