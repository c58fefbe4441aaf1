package telemetry

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/golang/glog"

	"github.com/robotalks/romi.go/pkg/chans"
	"github.com/robotalks/romi.go/pkg/cotask"
)

// Talker states, as seen in task traces.
const (
	TalkerListening = 0
	TalkerCommand   = 1
)

// Talker is a routine streaming samples over a serial link and taking
// command lines from it. Each step either consumes one received byte or,
// when nothing arrived, sends one sample if all guard queues hold enough
// data. Receiving takes precedence, so a peer sending without pause
// stalls the stream.
type Talker struct {
	Out io.Writer
	// RX holds received bytes, filled by the link driver.
	RX *chans.Queue[byte]
	// Fields are drained one value each into every sample, in order. An
	// empty field repeats its previous value.
	Fields []*chans.Queue[float64]
	// Guards must all hold MinDepth values before a sample is taken, so
	// the other consumers of these queues are never starved.
	Guards   []*chans.Queue[float64]
	MinDepth int
	// Decimate sends only every Nth sample taken.
	Decimate int
	Handler  CommandHandler

	seq     Seq
	last    []float64
	line    LineBuffer
	pending string
	taken   uint64
	sent    uint64
	cmds    uint64
}

// TalkerStats are the Talker counters.
type TalkerStats struct {
	Taken    uint64
	Sent     uint64
	Commands uint64
}

// Stats returns the counters.
func (t *Talker) Stats() TalkerStats {
	return TalkerStats{Taken: t.taken, Sent: t.sent, Commands: t.cmds}
}

// Step implements cotask.Routine.
func (t *Talker) Step(s *cotask.Step) error {
	if s.State == TalkerCommand {
		s.State = TalkerListening
		return t.handle(t.pending)
	}
	if t.RX != nil {
		if b, err := t.RX.Get(); err == nil {
			if line, ok := t.line.Feed(b); ok {
				t.pending = line
				s.State = TalkerCommand
			}
			return nil
		}
	}
	return t.sample()
}

func (t *Talker) sample() error {
	minDepth := t.MinDepth
	if minDepth <= 0 {
		minDepth = 1
	}
	for _, q := range t.Guards {
		if !q.Available(minDepth) {
			return nil
		}
	}
	if len(t.last) != len(t.Fields) {
		t.last = make([]float64, len(t.Fields))
	}
	for n, q := range t.Fields {
		if v, err := q.Get(); err == nil {
			t.last[n] = v
		}
	}
	values := t.last
	t.taken++
	if t.Decimate > 1 && (t.taken-1)%uint64(t.Decimate) != 0 {
		return nil
	}
	data, err := EncodeSample(values...)
	if err != nil {
		return err
	}
	return t.send(CodeSample, data)
}

func (t *Talker) handle(line string) error {
	cmd, ok := ParseCommand(line)
	if !ok {
		glog.V(2).Infof("talker: ignored line %q", line)
		return nil
	}
	t.cmds++
	status := StatusOK
	if t.Handler == nil {
		status = StatusUnknownCommand
	} else if err := t.Handler(cmd); err != nil {
		glog.Warningf("talker: command %v: %v", cmd, err)
		switch {
		case errors.Is(err, ErrUnknownCommand):
			status = StatusUnknownCommand
		case errors.Is(err, strconv.ErrSyntax), errors.Is(err, strconv.ErrRange):
			status = StatusBadArgument
		default:
			status = StatusFailed
		}
	}
	return t.send(CodeReply, []byte{status})
}

func (t *Talker) send(code byte, data []byte) error {
	if t.Out == nil {
		return nil
	}
	if !t.seq.IsValid() {
		t.seq = NewSeq()
	}
	f := Frame{Seq: t.seq, Code: code, Data: data}
	t.seq = t.seq.Next()
	if _, err := f.WriteTo(t.Out); err != nil {
		return fmt.Errorf("talker: write frame: %w", err)
	}
	t.sent++
	return nil
}
