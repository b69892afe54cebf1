package audio

import (
	"bytes"
	"encoding/binary"
	"math"
)

// RMS computes the root-mean-square energy of a PCM sample window. Only
// 16-bit little-endian samples carry a meaningful amplitude here; other
// formats report zero energy rather than guessing at a companding curve.
func RMS(pcm []byte, encodingInfo EncodingInfo) float64 {
	if encodingInfo.Format != EncodingLinear16 {
		return 0
	}
	if len(pcm) < 2 {
		return 0
	}

	var sumSquares float64
	count := 0
	for i := 0; i+1 < len(pcm); i += 2 {
		v := int16(binary.LittleEndian.Uint16(pcm[i : i+2]))
		sumSquares += float64(v) * float64(v)
		count++
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sumSquares / float64(count))
}

var riffMagic = []byte("RIFF")

// TrimWAVHeader strips a canonical 44-byte RIFF/WAVE header so the raw PCM
// payload can be fed to a linear16 playback device. Headerless input is
// returned unchanged.
func TrimWAVHeader(audio []byte) []byte {
	if len(audio) <= 44 || !bytes.HasPrefix(audio, riffMagic) {
		return audio
	}
	return audio[44:]
}
