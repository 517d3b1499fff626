// Package metrics owns the Prometheus collectors for the API.
//
// New() builds a dedicated registry (Go runtime and process collectors
// included) so tests never share state with the default registry. Handler()
// serves it in the text exposition format; Summary() folds the gathered
// families into name → total for the shutdown log line.
package metrics
