package spectral

// Chunk is the log-power spectrum of a single window of samples.
type Chunk struct {
	Time     float64   // Time of the first sample in the window, seconds
	Power    []float32 // log10 power per bin, DC first, len == window/2
	Throttle float32   // Throttle sample at the window midpoint
}

// Bins returns the number of frequency bins in the chunk.
func (c *Chunk) Bins() int {
	return len(c.Power)
}

// BinFrequency returns the centre frequency, in Hz, of bin k for a window of
// windowSize samples taken at sampleRate.
func BinFrequency(k, windowSize int, sampleRate float64) float64 {
	if windowSize <= 0 {
		return 0
	}
	return float64(k) * sampleRate / float64(windowSize)
}
