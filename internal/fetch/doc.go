// Package fetch contains the resilient fetch coordinator for a polled
// backend resource. The coordinator decides whether a refresh may run at
// all (re-entrancy, guard window, debounce, reachability), executes a
// bounded retry loop with capped exponential backoff, substitutes cached
// data when a fresh fetch fails, and geometrically extends its quiet period
// after repeated hard misses so a struggling backend is not hammered.
package fetch
