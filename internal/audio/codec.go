// Package audio converts transport-native encoded audio into the canonical
// mono float32 sample stream the recognizer consumes. It implements G.711
// companded telephony decoding, a raw linear-PCM bypass, and linear
// interpolation resampling.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Encoding identifies the wire format of inbound audio frames.
type Encoding string

const (
	// EncodingALaw is G.711 A-law, 8-bit companded telephony audio.
	EncodingALaw Encoding = "alaw"
	// EncodingMuLaw is G.711 mu-law, 8-bit companded telephony audio.
	EncodingMuLaw Encoding = "mulaw"
	// EncodingLinear16 is raw little-endian signed 16-bit PCM; decoding is
	// a normalization pass only.
	EncodingLinear16 Encoding = "linear16"
)

// ParseEncoding maps a configuration string to an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case EncodingALaw, EncodingMuLaw, EncodingLinear16:
		return Encoding(s), nil
	default:
		return "", fmt.Errorf("unsupported audio encoding %q", s)
	}
}

// Frame decode errors. Both are transient: the caller skips the frame and
// keeps the connection open.
var (
	ErrEmptyFrame = errors.New("empty audio frame")
	ErrOddFrame   = errors.New("linear16 frame length is not a multiple of 2")
)

// G.711 expansion tables, built once at package init.
var (
	alawTable [256]int16
	ulawTable [256]int16
)

func init() {
	for i := 0; i < 256; i++ {
		alawTable[i] = alawExpand(byte(i))
		ulawTable[i] = ulawExpand(byte(i))
	}
}

// alawExpand converts one A-law byte to a linear 16-bit sample (G.711).
func alawExpand(b byte) int16 {
	b ^= 0x55
	t := int16(b&0x0F) << 4
	seg := (b & 0x70) >> 4
	switch seg {
	case 0:
		t += 8
	case 1:
		t += 0x108
	default:
		t += 0x108
		t <<= seg - 1
	}
	if b&0x80 != 0 {
		return t
	}
	return -t
}

// ulawExpand converts one mu-law byte to a linear 16-bit sample (G.711).
func ulawExpand(b byte) int16 {
	b = ^b
	t := (int16(b&0x0F) << 3) + 0x84
	t <<= (b & 0x70) >> 4
	if b&0x80 != 0 {
		return 0x84 - t
	}
	return t - 0x84
}

// Processor converts encoded frames at the source rate into normalized
// float32 samples at the target rate. It holds no per-frame state and is
// safe for concurrent use.
type Processor struct {
	enc     Encoding
	srcRate int
	dstRate int
}

// NewProcessor creates a Processor for the given encoding and rates.
func NewProcessor(enc Encoding, srcRate, dstRate int) (*Processor, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates %d -> %d", srcRate, dstRate)
	}
	switch enc {
	case EncodingALaw, EncodingMuLaw, EncodingLinear16:
	default:
		return nil, fmt.Errorf("unsupported audio encoding %q", enc)
	}
	return &Processor{enc: enc, srcRate: srcRate, dstRate: dstRate}, nil
}

// SourceRate returns the configured source sample rate.
func (p *Processor) SourceRate() int { return p.srcRate }

// TargetRate returns the configured target sample rate.
func (p *Processor) TargetRate() int { return p.dstRate }

// Process runs the full pipeline for one frame: decode to normalized
// [-1, 1] float32 PCM, then resample from source to target rate.
func (p *Processor) Process(frame []byte) ([]float32, error) {
	pcm, err := p.decode(frame)
	if err != nil {
		return nil, err
	}
	return Resample(pcm, p.srcRate, p.dstRate), nil
}

func (p *Processor) decode(frame []byte) ([]float32, error) {
	if len(frame) == 0 {
		return nil, ErrEmptyFrame
	}
	switch p.enc {
	case EncodingALaw:
		out := make([]float32, len(frame))
		for i, b := range frame {
			out[i] = float32(alawTable[b]) / 32768.0
		}
		return out, nil
	case EncodingMuLaw:
		out := make([]float32, len(frame))
		for i, b := range frame {
			out[i] = float32(ulawTable[b]) / 32768.0
		}
		return out, nil
	default: // EncodingLinear16
		if len(frame)%2 != 0 {
			return nil, ErrOddFrame
		}
		out := make([]float32, len(frame)/2)
		for i := range out {
			s := int16(binary.LittleEndian.Uint16(frame[2*i:]))
			out[i] = float32(s) / 32768.0
		}
		return out, nil
	}
}

// Resample converts samples from srcRate to dstRate by linear interpolation
// over evenly spaced time points covering the chunk's duration. The output
// length is round(n * dstRate / srcRate). srcRate == dstRate returns the
// input unchanged.
func Resample(samples []float32, srcRate, dstRate int) []float32 {
	if srcRate == dstRate || len(samples) == 0 {
		return samples
	}
	n := len(samples)
	m := int(math.Round(float64(n) * float64(dstRate) / float64(srcRate)))
	if m <= 0 {
		return nil
	}
	out := make([]float32, m)
	if n == 1 || m == 1 {
		for i := range out {
			out[i] = samples[0]
		}
		return out
	}
	// Both in and out span the same duration, so output point i lands at
	// fractional input position i*(n-1)/(m-1).
	step := float64(n-1) / float64(m-1)
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= n-1 {
			out[i] = samples[n-1]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = samples[j] + (samples[j+1]-samples[j])*frac
	}
	return out
}
