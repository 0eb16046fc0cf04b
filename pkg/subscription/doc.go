// Package subscription tracks HAP characteristic event subscriptions.
//
// A controller session enables events for a characteristic by writing
// "ev": true to it and disables them with "ev": false. The Manager keeps the
// subscribed characteristics of every session and turns value changes into
// event notifications.
//
// # Coalescing
//
// Changes recorded within CoalesceInterval of the first pending change are
// merged; only the final value of each characteristic is sent.
//
// # Bounce-Back Suppression
//
// A change is not echoed to the session that caused it. With
// SuppressBounceBack enabled, a value equal to the last one sent to a session
// is dropped as well, so X -> Y -> X within one window sends nothing.
//
// # Lifecycle
//
// Subscriptions belong to a session and do not survive it. Call
// RemoveSession when a controller disconnects.
package subscription
