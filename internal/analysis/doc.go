// Package analysis provides post-processing for recorded body traces.
//
//   - [PowerSpectrum] and [DominantFrequency]: vibration frequency of a
//     sampled signal such as a body's centroid height
//   - [Sweep]: parameter sweep that collects a response per parameter value
//   - [NewPhasePortrait]: 2D phase space trajectory from two series
//
// A stiffer body rings faster:
//
//	f, _ := analysis.DominantFrequency(trace.Y, trace.SampleRate())
package analysis
