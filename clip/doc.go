// Package clip decodes sound files into in-memory [voice.Buffer] values
// and writes rendered output as WAV.
//
// Supported containers are WAV, AIFF, MP3 and Ogg Vorbis. Any of them may
// additionally be wrapped in gzip, zstd, xz, lz4 or brotli compression,
// recognised by a second file extension such as "loop.wav.zst". A [Loader]
// reads through an afero filesystem and keeps recently decoded clips in an
// LRU cache.
package clip
