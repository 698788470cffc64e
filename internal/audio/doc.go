// Package audio provides PCM sample-width conversion between the 32-bit
// wire stream and 16-bit storage, and WAV file encoding/decoding for the
// collector output and file-backed playback.
package audio
