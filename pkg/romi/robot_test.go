package romi

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/romi.go/pkg/cotask"
	"github.com/robotalks/romi.go/pkg/sim"
	"github.com/robotalks/romi.go/pkg/telemetry"
)

type robotFixture struct {
	*Robot
	clock *cotask.ManualClock
	out   bytes.Buffer
}

func newRobotFixture(t *testing.T, speed float64) *robotFixture {
	f := &robotFixture{clock: &cotask.ManualClock{}}
	conf := &Config{
		Robot:  telemetry.RobotRef{Type: "romi", ID: "test"},
		Speed:  speed,
		Tuning: DefaultTuning(),
	}
	conf.Tuning.CollectorMS = 1000
	r, err := New(conf, &f.out, cotask.WithClock(f.clock))
	require.NoError(t, err)
	f.Robot = r
	return f
}

// runFor dispatches until nothing is ready, then moves the clock by 1ms.
func (f *robotFixture) runFor(d time.Duration) {
	end := f.clock.Now() + d
	for f.clock.Now() < end {
		for f.Scheduler.RunPass() {
		}
		f.clock.Advance(time.Millisecond)
	}
}

func (f *robotFixture) receive(line string) {
	for _, b := range []byte(line) {
		f.Channels.RX.Put(b)
	}
}

func TestRobotDrives(t *testing.T) {
	f := newRobotFixture(t, 12)
	f.runFor(5 * time.Second)

	require.Empty(t, f.Scheduler.Faults())
	cal, err := f.Scheduler.Task(TaskCalibrate)
	require.NoError(t, err)
	require.Equal(t, cotask.StateFinished, cal.State())

	ctl, err := f.Scheduler.Task(TaskController)
	require.NoError(t, err)
	prof := ctl.Profile()
	require.EqualValues(t, 500, prof.Runs)
	require.Zero(t, prof.MaxLateness)

	require.Greater(t, f.Plant.TruePose().Norm(), 5.0)
	est := f.Channels.Pose.Read()
	require.InDelta(t, f.Plant.TruePose().X, est.X, 5)
	require.InDelta(t, f.Plant.TruePose().Y, est.Y, 5)
	require.NotZero(t, f.GC.Collections)

	var d telemetry.Decoder
	frames := d.Decode(f.out.Bytes())
	require.NotEmpty(t, frames)
	values, err := telemetry.DecodeSample(frames[len(frames)-1].Data)
	require.NoError(t, err)
	require.Len(t, values, len(f.Channels.SampleQueues()))
}

func TestRobotCommands(t *testing.T) {
	f := newRobotFixture(t, 0)
	f.runFor(time.Second)
	require.Zero(t, f.Plant.TruePose().Norm())

	f.receive("$SPD10\r")
	f.runFor(2 * time.Second)
	require.Greater(t, f.Plant.TruePose().Norm(), 1.0)

	f.receive("$STP\r")
	f.runFor(time.Second)
	require.Zero(t, f.Channels.VelocitySetpoint.Read())
	left, right := f.Plant.Effort()
	require.Zero(t, left)
	require.Zero(t, right)

	f.Send("$IMU0")
	f.runFor(100 * time.Millisecond)
	require.True(t, f.Channels.IMUOff.Read())

	var replies int
	var d telemetry.Decoder
	for _, frame := range d.Decode(f.out.Bytes()) {
		if frame.Code == telemetry.CodeReply {
			require.NoError(t, telemetry.ReplyError(frame))
			replies++
		}
	}
	require.Equal(t, 3, replies)
}

func TestRobotCompletesCourse(t *testing.T) {
	f := newRobotFixture(t, 10)
	f.Pursuer.Course = []Waypoint{{sim.Pos2D{X: 10}, 10, 5, 9}}
	stopped := 0
	f.OnStop = func() { stopped++ }
	f.runFor(3 * time.Second)

	require.True(t, f.Stopped())
	require.Equal(t, 1, stopped)
	p, err := f.Scheduler.Task(TaskPursuer)
	require.NoError(t, err)
	require.Equal(t, cotask.StateFinished, p.State())
	require.Greater(t, f.Plant.TruePose().X, 5.0)

	meta := f.Meta()
	require.Contains(t, meta.Tasks, TaskCollector)
	require.Contains(t, meta.Channels, ChanVelocitySetpoint)
	require.Contains(t, f.Report(), "controller")
}
