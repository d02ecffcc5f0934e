package analysis

import "math"

// SilenceFloorDB is the RMS value reported for an all-zero buffer.
const SilenceFloorDB = -120.0

// RMS computes the root-mean-square level of the sample buffer in dBFS.
// It is measured directly from the input, independent of the engine, and
// serves as a cross-check against engine-reported loudness.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return SilenceFloorDB
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	mean := sum / float64(len(samples))
	if mean <= 0 {
		return SilenceFloorDB
	}
	db := 10 * math.Log10(mean)
	if db < SilenceFloorDB {
		return SilenceFloorDB
	}
	return db
}
