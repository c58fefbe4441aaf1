package telemetry

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"
)

// Frame codes.
const (
	// CodeReply answers a command line, Data is one status byte.
	CodeReply byte = 0x01
	// CodeSample carries one telemetry sample of float32 fields.
	CodeSample byte = 0x81
)

// Reply statuses.
const (
	StatusOK byte = iota
	StatusUnknownCommand
	StatusBadArgument
	StatusFailed
)

// MaxFrameData is the largest payload a frame can carry.
const MaxFrameData = 0x7f

// MaxSampleFields is the number of float32 values fitting in one frame.
const MaxSampleFields = MaxFrameData / 4

// Seq defines the type of frame sequence number.
type Seq byte

// NewSeq creates a random frame sequence number.
func NewSeq() Seq {
	return Seq(byte(time.Now().UnixNano())).Next()
}

// Next calculates the next sequence number.
func (s Seq) Next() Seq {
	n := byte(s) + 1
	if n == 0 || n >= 0xf0 {
		n = 1
	}
	return Seq(n)
}

// IsValid checks if it's a valid sequence number.
func (s Seq) IsValid() bool {
	n := byte(s)
	return n > 0 && n < 0xf0
}

// Frame is one unit on the serial link.
type Frame struct {
	Seq  Seq
	Code byte
	Data []byte
}

// IsEvent tells if the frame is unsolicited.
func (f *Frame) IsEvent() bool {
	return f.Code&0x80 != 0
}

// Bytes returns encoded bytes for sending.
func (f *Frame) Bytes() []byte {
	b := make([]byte, len(f.Data)+3)
	b[0], b[1] = byte(f.Seq), f.Code&0x8f
	if l := byte(len(f.Data)); l >= 7 {
		b[1] |= 0x70
		b[2] = l
		copy(b[3:], f.Data)
	} else {
		b = b[:l+2]
		b[1] |= (l << 4) & 0x70
		copy(b[2:], f.Data)
	}
	return b
}

// WriteTo implements io.WriterTo.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.Bytes())
	return int64(n), err
}

// EncodeSample packs values as little-endian float32s.
func EncodeSample(values ...float64) ([]byte, error) {
	if len(values) > MaxSampleFields {
		return nil, fmt.Errorf("%w: %d fields", ErrFrameTooLarge, len(values))
	}
	data := make([]byte, len(values)*4)
	for n, v := range values {
		binary.LittleEndian.PutUint32(data[n*4:], math.Float32bits(float32(v)))
	}
	return data, nil
}

// DecodeSample unpacks the payload of a sample frame.
func DecodeSample(data []byte) ([]float64, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: sample of %d bytes", ErrMalformed, len(data))
	}
	values := make([]float64, len(data)/4)
	for n := range values {
		values[n] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[n*4:])))
	}
	return values, nil
}

// ReplyError extracts the status of a reply frame.
func ReplyError(f *Frame) error {
	if f.Code != CodeReply || len(f.Data) != 1 {
		return fmt.Errorf("%w: not a reply", ErrMalformed)
	}
	if status := f.Data[0]; status != StatusOK {
		return &CommandError{Status: status}
	}
	return nil
}
