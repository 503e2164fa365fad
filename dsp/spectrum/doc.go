// Package spectrum measures rendered output: windowed FFT magnitude
// spectra, spectral peaks, single-bin tone levels and peak/RMS levels.
//
// It is used offline on rendered blocks, never on the audio thread.
package spectrum
