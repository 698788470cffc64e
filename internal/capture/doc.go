// Package capture implements the collector side of the uplink protocol:
// an incremental decoder that reassembles tagged frames from arbitrarily
// fragmented stream chunks, and writers that persist the decoded motion
// data.
package capture
