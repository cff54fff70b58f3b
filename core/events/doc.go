// Package events defines the domain events emitted on the event bus.
//
// Available event types:
//   - TransitionEvent: a validated trip lifecycle transition was applied
//   - AssignmentEvent: a driver was assigned to or released from a trip
//   - TelemetryEvent: a GPS ping was recorded for a driver
package events
