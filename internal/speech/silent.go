package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"strings"
)

const (
	silentSampleRate = 16000
	silentSeconds    = 0.25
)

// SilentSynthesizer returns a short silent WAV. It keeps the chat pipeline
// usable on hosts without a speech engine.
type SilentSynthesizer struct{}

func NewSilentSynthesizer() *SilentSynthesizer {
	return &SilentSynthesizer{}
}

func (s *SilentSynthesizer) Synthesize(_ context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	return Silence(), nil
}

// Silence is the short silent clip used wherever there is nothing to say.
func Silence() []byte {
	return silentWAV(int(silentSampleRate * silentSeconds))
}

// silentWAV builds a 16-bit mono PCM RIFF file of n zero samples.
func silentWAV(n int) []byte {
	dataLen := uint32(n * 2)
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataLen)
	buf.WriteString("WAVEfmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	_ = binary.Write(&buf, binary.LittleEndian, uint32(silentSampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(silentSampleRate*2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataLen)
	buf.Write(make([]byte, dataLen))
	return buf.Bytes()
}
