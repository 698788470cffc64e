package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Protocol constants. The wire format carries no length prefix: the tag
// alone determines the payload size, with the audio block size agreed out
// of band.
const (
	// Frame tags
	TagAudio  = 0x01
	TagMotion = 0x02

	// Structure sizes
	TagSize           = 1
	BytesPerSample    = 4  // signed 32-bit PCM
	MotionPayloadSize = 24 // six 4-byte floats
)

// MotionSample is one 6-axis IMU reading. Field order matches the wire
// layout: acceleration in m/s², then angular rate in rad/s.
type MotionSample struct {
	Ax, Ay, Az float32
	Gx, Gy, Gz float32
}

// Frame represents one decoded unit of the wire protocol. Exactly one of
// Audio or Motion is set, according to Tag.
type Frame struct {
	Tag    uint8
	Audio  []int32
	Motion *MotionSample
}

// AudioPayloadSize returns the audio frame payload size in bytes for the
// given block size in samples.
func AudioPayloadSize(blockSamples int) int {
	return blockSamples * BytesPerSample
}

// PayloadSize returns the payload size implied by a tag. The audio block
// size must be the one configured on the sending device.
func PayloadSize(tag uint8, blockSamples int) (int, error) {
	switch tag {
	case TagAudio:
		return AudioPayloadSize(blockSamples), nil
	case TagMotion:
		return MotionPayloadSize, nil
	default:
		return 0, fmt.Errorf("unknown frame tag: 0x%02x", tag)
	}
}

// IsValidTag checks if the tag is one of the known frame tags.
func IsValidTag(tag uint8) bool {
	return tag == TagAudio || tag == TagMotion
}

// EncodeAudioPayload encodes PCM samples as little-endian signed 32-bit
// values, the sample format the audio interface delivers.
func EncodeAudioPayload(samples []int32) []byte {
	buf := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*BytesPerSample:], uint32(s))
	}
	return buf
}

// DecodeAudioPayload decodes an audio payload back into PCM samples.
func DecodeAudioPayload(data []byte) ([]int32, error) {
	if len(data)%BytesPerSample != 0 {
		return nil, fmt.Errorf("audio payload length %d is not a multiple of %d bytes",
			len(data), BytesPerSample)
	}

	samples := make([]int32, len(data)/BytesPerSample)
	for i := range samples {
		samples[i] = int32(binary.LittleEndian.Uint32(data[i*BytesPerSample:]))
	}
	return samples, nil
}

// EncodeMotionPayload encodes one motion sample as six little-endian
// IEEE-754 single-precision values in wire field order.
func EncodeMotionPayload(s MotionSample) []byte {
	buf := make([]byte, MotionPayloadSize)
	fields := [6]float32{s.Ax, s.Ay, s.Az, s.Gx, s.Gy, s.Gz}
	for i, v := range fields {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// DecodeMotionPayload decodes a 24-byte motion payload.
func DecodeMotionPayload(data []byte) (MotionSample, error) {
	if len(data) < MotionPayloadSize {
		return MotionSample{}, fmt.Errorf("motion payload too short: expected %d bytes, got %d",
			MotionPayloadSize, len(data))
	}

	var fields [6]float32
	for i := range fields {
		fields[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return MotionSample{
		Ax: fields[0], Ay: fields[1], Az: fields[2],
		Gx: fields[3], Gy: fields[4], Gz: fields[5],
	}, nil
}

// TagString converts a frame tag to a human-readable name.
func TagString(tag uint8) string {
	switch tag {
	case TagAudio:
		return "audio"
	case TagMotion:
		return "motion"
	default:
		return fmt.Sprintf("unknown(0x%02x)", tag)
	}
}

// String returns a human-readable representation of the motion sample.
func (s MotionSample) String() string {
	return fmt.Sprintf("MotionSample{Accel:[%.3f %.3f %.3f] Gyro:[%.3f %.3f %.3f]}",
		s.Ax, s.Ay, s.Az, s.Gx, s.Gy, s.Gz)
}
