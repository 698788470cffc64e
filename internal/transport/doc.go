// Package transport implements reliable whole-buffer delivery over a
// byte-stream connection. It tolerates transient short writes by yielding
// and retrying, and fails on disconnection or sustained backpressure
// beyond a bounded progress timeout.
package transport
