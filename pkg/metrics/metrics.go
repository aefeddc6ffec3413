// Package metrics provides the Prometheus registry and handler for the
// pokedex service. All metrics are defined in their respective packages
// (client, fanout, aggregate, viewstate) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the service.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer exposes the registered metrics.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registered metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Names lists every metric the service registers.
var Names = []string{
	"pokedex_upstream_requests_total",
	"pokedex_upstream_request_duration_seconds",
	"pokedex_upstream_errors_total",
	"pokedex_upstream_decode_errors_total",
	"pokedex_fanout_items_total",
	"pokedex_fanout_batch_duration_seconds",
	"pokedex_aggregations_total",
	"pokedex_aggregation_duration_seconds",
	"pokedex_viewstate_hits_total",
	"pokedex_viewstate_misses_total",
	"pokedex_viewstate_errors_total",
	"pokedex_viewstate_entry_bytes",
	"pokedex_navigations_superseded_total",
	"pokedex_navigations_inflight",
	"pokedex_http_requests_total",
	"pokedex_http_request_duration_seconds",
}

// Metrics Documentation
//
// Upstream Metrics (pkg/client):
//   - pokedex_upstream_requests_total{resource, status} (Counter): Upstream GETs by resource kind and HTTP status
//   - pokedex_upstream_request_duration_seconds{resource} (Histogram): Upstream GET duration
//   - pokedex_upstream_errors_total{class} (Counter): Failures by class (client, server, network, unexpected)
//   - pokedex_upstream_decode_errors_total{kind} (Counter): Payloads rejected at the fetch boundary (syntax, shape)
//
// Fan-out Metrics (pkg/fanout):
//   - pokedex_fanout_items_total{policy, outcome} (Counter): Resolved items by policy (strict, tolerant, placeholder) and outcome (ok, failed)
//   - pokedex_fanout_batch_duration_seconds{policy} (Histogram): Batch duration
//
// Aggregation Metrics (pkg/aggregate):
//   - pokedex_aggregations_total{flow, state} (Counter): Flows (detail, related, listing, type_listing, metadata) by result
//     (ready, not_found, ok, failed, cancelled)
//   - pokedex_aggregation_duration_seconds{flow} (Histogram): Flow duration
//
// View State Metrics (pkg/viewstate):
//   - pokedex_viewstate_hits_total{backend} (Counter): Lookups that found state (memory, redis)
//   - pokedex_viewstate_misses_total{backend} (Counter): Lookups without state
//   - pokedex_viewstate_errors_total{operation} (Counter): Store errors (get, put, delete)
//   - pokedex_viewstate_entry_bytes (Histogram): Encoded entry size
//   - pokedex_navigations_superseded_total (Counter): Navigations cancelled by a newer one of the same visitor
//   - pokedex_navigations_inflight (Gauge): Visitors with a detail navigation in flight
//
// Site Metrics (internal/web):
//   - pokedex_http_requests_total{route, status} (Counter): Site requests by route pattern and status
//   - pokedex_http_request_duration_seconds{route} (Histogram): Site request duration
//
// Example Prometheus Queries:
//
//   # Detail not-found ratio
//   sum(rate(pokedex_aggregations_total{flow="detail",state="not_found"}[5m])) /
//   sum(rate(pokedex_aggregations_total{flow="detail"}[5m]))
//
//   # Tolerated item failures
//   rate(pokedex_fanout_items_total{outcome="failed",policy!="strict"}[5m])
//
//   # Upstream error rate
//   rate(pokedex_upstream_errors_total[5m])
//
//   # P95 upstream latency
//   histogram_quantile(0.95, rate(pokedex_upstream_request_duration_seconds_bucket[5m]))
//
//   # Superseded navigations
//   rate(pokedex_navigations_superseded_total[5m])
