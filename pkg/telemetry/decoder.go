package telemetry

type decodeState int

const (
	stateSeq  decodeState = iota // waiting for frame seq
	stateCode                    // waiting for frame code
	stateLen                     // waiting for data length
	stateData                    // waiting for data
)

// Decoder reassembles frames from a byte stream. The zero value is ready
// to use.
type Decoder struct {
	state   decodeState
	frame   *Frame
	recvLen byte
	peerSeq Seq

	// Skipped counts bytes discarded while looking for a frame.
	Skipped uint64
	// Gaps counts frames whose seq didn't follow the previous one.
	Gaps uint64
}

// Feed consumes one byte, and returns a frame once one is complete.
func (d *Decoder) Feed(b byte) *Frame {
	switch d.state {
	case stateSeq:
		seq := Seq(b)
		if !seq.IsValid() {
			d.Skipped++
			return nil
		}
		if d.peerSeq.IsValid() && seq != d.peerSeq {
			d.Gaps++
		}
		d.frame = &Frame{Seq: seq}
		d.peerSeq = seq.Next()
		d.state = stateCode
	case stateCode:
		d.frame.Code = b & 0x8f
		switch dataLen := (b >> 4) & 7; dataLen {
		case 0:
			return d.frameReady()
		case 7:
			d.state = stateLen
		default:
			d.frame.Data, d.recvLen = make([]byte, dataLen), 0
			d.state = stateData
		}
	case stateLen:
		if b > MaxFrameData {
			d.Skipped += 3
			d.state, d.frame = stateSeq, nil
			return nil
		}
		if b == 0 {
			return d.frameReady()
		}
		d.frame.Data, d.recvLen = make([]byte, b), 0
		d.state = stateData
	case stateData:
		d.frame.Data[d.recvLen] = b
		d.recvLen++
		if d.recvLen >= byte(len(d.frame.Data)) {
			return d.frameReady()
		}
	}
	return nil
}

// Decode feeds all of p and returns the completed frames.
func (d *Decoder) Decode(p []byte) []*Frame {
	var frames []*Frame
	for _, b := range p {
		if f := d.Feed(b); f != nil {
			frames = append(frames, f)
		}
	}
	return frames
}

func (d *Decoder) frameReady() *Frame {
	d.state = stateSeq
	f := d.frame
	d.frame = nil
	return f
}
