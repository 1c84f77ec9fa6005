package audio

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"math"
)

// EncodeFrame converts a float32 PCM frame into the recognizer wire format:
// samples clipped to [-1, 1], scaled to signed 16-bit, packed little-endian,
// then base64-encoded. Pure and synchronous.
func EncodeFrame(samples []float32) string {
	return base64.StdEncoding.EncodeToString(FrameToPCM16(samples))
}

// FrameToPCM16 converts float32 samples to little-endian PCM16 bytes.
func FrameToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * math.MaxInt16)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// WAVFromPCM wraps raw PCM16 mono audio in a RIFF/WAVE container. The
// fallback recognizer uploads whole utterances and needs the header.
func WAVFromPCM(pcm []byte, sampleRate int) []byte {
	const (
		channels = 1
		bitDepth = 16
	)
	byteRate := sampleRate * channels * bitDepth / 8
	blockAlign := channels * bitDepth / 8

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(pcm)))
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(bitDepth))
	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
