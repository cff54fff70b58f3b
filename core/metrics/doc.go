// Package metrics defines the sink interfaces used to record dispatch
// observability events. Concrete sinks live under infra/metrics and are
// instantiated through the factory registry from configuration.
package metrics
