// Package metrics provides observability hooks for publishing runs.
//
// # Design
//
// This package implements the Null Object pattern to enable metrics
// collection without explicit nil checks throughout the codebase. By default,
// components use NoopRecorder, which implements the Recorder interface with
// no-op methods.
//
// The metrics system has three components:
//
//  1. Recorder interface - defines all metrics operations
//  2. NoopRecorder - default implementation that does nothing
//  3. PrometheusRecorder - real implementation backed by a prometheus.Registry
//
// # Usage Pattern
//
// Components receive a Recorder through dependency injection:
//
//	builder := site.New(opts).WithRecorder(metrics.NoopRecorder{})
//
// The watch daemon swaps in a PrometheusRecorder and serves its registry on
// the /metrics endpoint. One-shot commands keep the noop recorder.
package metrics
