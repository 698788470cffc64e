// Package source defines the acquisition interfaces for the two sensor
// streams and provides the implementations used when no hardware is
// attached: real-time paced synthesized audio, WAV-file playback, and a
// deterministic motion waveform.
package source
