// Package link owns the single active collector connection. It accepts at
// most one peer at a time from a listening socket, detects peer loss, and
// tears the slot down so the next poll can accept a replacement. Further
// pending connections stay queued in the listener backlog.
package link
