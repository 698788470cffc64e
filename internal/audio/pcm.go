package audio

// Int32ToInt16 narrows left-justified 32-bit samples to 16-bit PCM by
// keeping the 16 most significant bits of each sample.
func Int32ToInt16(samples []int32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = int16(s >> 16)
	}
	return out
}

// Int16ToInt32 widens 16-bit PCM samples to left-justified 32-bit storage.
func Int16ToInt32(samples []int16) []int32 {
	out := make([]int32, len(samples))
	for i, s := range samples {
		out[i] = int32(s) << 16
	}
	return out
}
