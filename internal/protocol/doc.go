// Package protocol implements the tagged frame format spoken between the
// uplink daemon and the collector. Each frame is a single tag byte followed
// by a fixed-size payload whose length is implied by the tag; the audio
// block size is a configuration constant shared with the collector.
package protocol
