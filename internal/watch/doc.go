// Package watch feeds filesystem activity through the async primitives.
//
// Raw fsnotify events arrive in bursts (editors write, rename, and chmod
// in quick succession). The service counts them, collapses each burst
// with a debounced settle callback, and rate-limits raw-event logging
// with a throttle so a busy tree cannot flood the log. Settles are
// published on the event bus.
package watch
