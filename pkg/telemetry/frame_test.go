package telemetry

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeq(t *testing.T) {
	for s := byte(0xff); s >= byte(0xf0); s-- {
		require.False(t, Seq(s).IsValid())
		require.Equal(t, Seq(1), Seq(s).Next())
	}
	for s := byte(1); s < byte(0xf0); s++ {
		require.True(t, Seq(s).IsValid())
		if s+1 < 0xf0 {
			require.Equal(t, Seq(s+1), Seq(s).Next())
		} else {
			require.Equal(t, Seq(1), Seq(s).Next())
		}
	}
	require.False(t, Seq(0).IsValid())
	require.Equal(t, Seq(1), Seq(0).Next())
	require.True(t, NewSeq().IsValid())
}

func TestFrameEncoding(t *testing.T) {
	testCases := []struct {
		name   string
		frame  Frame
		expect []byte
	}{
		{"no data", Frame{Seq: 1, Code: 2}, []byte{1, 2}},
		{"small data", Frame{Seq: 1, Code: 2, Data: []byte{1}}, []byte{1, 0x12, 1}},
		{"large data", Frame{Seq: 1, Code: 2, Data: []byte{1, 2, 3, 4, 5, 6, 7}}, []byte{1, 0x72, 7, 1, 2, 3, 4, 5, 6, 7}},
		{"event no data", Frame{Seq: 1, Code: 0x82}, []byte{1, 0x82}},
		{"event small data", Frame{Seq: 1, Code: 0x82, Data: []byte{1}}, []byte{1, 0x92, 1}},
		{"event large data", Frame{Seq: 1, Code: 0x82, Data: []byte{1, 2, 3, 4, 5, 6, 7}}, []byte{1, 0xf2, 7, 1, 2, 3, 4, 5, 6, 7}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, tc.frame.Bytes())
			var buf bytes.Buffer
			n, err := tc.frame.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, tc.expect, buf.Bytes())
			require.EqualValues(t, len(tc.expect), n)

			var d Decoder
			frames := d.Decode(buf.Bytes())
			require.Len(t, frames, 1)
			require.Equal(t, tc.frame.Seq, frames[0].Seq)
			require.Equal(t, tc.frame.Code, frames[0].Code)
			require.Equal(t, len(tc.frame.Data), len(frames[0].Data))
		})
	}
}

func TestSample(t *testing.T) {
	data, err := EncodeSample(1, -2.5, 1000)
	require.NoError(t, err)
	require.Len(t, data, 12)
	values, err := DecodeSample(data)
	require.NoError(t, err)
	require.Equal(t, []float64{1, -2.5, 1000}, values)

	_, err = EncodeSample(make([]float64, MaxSampleFields+1)...)
	require.ErrorIs(t, err, ErrFrameTooLarge)
	_, err = DecodeSample([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrMalformed)

	full, err := EncodeSample(make([]float64, MaxSampleFields)...)
	require.NoError(t, err)
	f := Frame{Seq: 3, Code: CodeSample, Data: full}
	var d Decoder
	frames := d.Decode(f.Bytes())
	require.Len(t, frames, 1)
	require.True(t, frames[0].IsEvent())
	require.Equal(t, full, frames[0].Data)
}

func TestDecoderResync(t *testing.T) {
	var d Decoder
	stream := []byte{0xff, 0xf3, 0}
	stream = append(stream, (&Frame{Seq: 5, Code: CodeReply, Data: []byte{StatusOK}}).Bytes()...)
	stream = append(stream, 9, 0x70, 0x90) // length out of range
	stream = append(stream, (&Frame{Seq: 7, Code: CodeReply, Data: []byte{StatusBadArgument}}).Bytes()...)

	frames := d.Decode(stream)
	require.Len(t, frames, 2)
	require.NoError(t, ReplyError(frames[0]))
	err := ReplyError(frames[1])
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, StatusBadArgument, cmdErr.Status)
	require.EqualValues(t, 6, d.Skipped)
	require.EqualValues(t, 2, d.Gaps)

	_, err = DecodeSample(nil)
	require.NoError(t, err)
	require.ErrorIs(t, ReplyError(&Frame{Code: CodeSample}), ErrMalformed)
}
