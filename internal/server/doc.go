// Package server provides the HTTP monitoring API for the uplink daemon:
// health, statistics, sanitized configuration, and Prometheus metrics.
package server
