// Package async provides per-owner scheduling primitives for taming
// high-frequency event sources.
//
// # Overview
//
// Three primitives cover the common shapes of event-rate control:
//
//   - Debounce collapses a burst of calls into one trailing invocation
//     carrying the last call's argument.
//   - Throttle caps invocations at one per interval, with a leading-edge
//     immediate call and a single deferred trailing call.
//   - OnNextFrame coalesces any number of "run this on the next frame"
//     requests, from any number of owners, onto a single underlying
//     platform frame request per pending frame.
//
// # Owners
//
// An Owner remembers every cancelable handle created through it. Calling
// Dispose cancels all of them exactly once and makes the owner inert:
// further scheduling requests become silent no-ops. This makes the
// primitives safe to use from short-lived components that may be torn
// down while timers or frame requests are still outstanding.
//
// # Time
//
// All timing flows through the Clock interface. Production code uses the
// system clock; tests substitute a virtual clock so debounce and
// throttle behavior is fully deterministic. The frame coordinator's
// platform boundary is FrameScheduler, which by default synthesizes
// frames from the clock at roughly 60Hz and can be replaced by a real
// host frame source via SetFrameScheduler.
//
// # Idempotence
//
// Cancellation is the primary contract, not error handling: cancelling
// something already fired, unsubscribing twice, and disposing a disposed
// owner are all silent no-ops.
package async
