package audio

import (
	"bytes"
	"encoding/binary"
	"os"
)

// EncodeWav renders s as a canonical 16-bit mono WAV byte stream.
func EncodeWav(s Samples) []byte {
	return NewWavBuffer(SamplesToInt16(s), s.SampleRate)
}

// WriteWavFile writes s to path as a 16-bit mono WAV file.
func WriteWavFile(path string, s Samples) error {
	return os.WriteFile(path, EncodeWav(s), 0o644)
}

// NewWavBuffer wraps raw 16-bit mono PCM in a RIFF/WAVE container.
func NewWavBuffer(pcm []byte, sampleRate int) []byte {
	buf := new(bytes.Buffer)

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))           // fmt chunk size
	binary.Write(buf, binary.LittleEndian, uint16(1))            // PCM
	binary.Write(buf, binary.LittleEndian, uint16(1))            // mono
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))   // sample rate
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2)) // byte rate
	binary.Write(buf, binary.LittleEndian, uint16(2))            // block align
	binary.Write(buf, binary.LittleEndian, uint16(16))           // bits per sample

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}
