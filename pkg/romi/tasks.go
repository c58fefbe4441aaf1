package romi

import (
	"iter"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/romi.go/pkg/cotask"
	"github.com/robotalks/romi.go/pkg/sim"
	"github.com/robotalks/romi.go/pkg/telemetry"
)

// Task names and priorities.
const (
	TaskCalibrate  = "calibrate"
	TaskController = "controller"
	TaskPlant      = "plant"
	TaskEstimator  = "estimator"
	TaskPursuer    = "pursuer"
	TaskTalker     = "talker"
	TaskReporter   = "reporter"
	TaskCollector  = "collector"

	PrioCalibrate  = 6
	PrioController = 5
	PrioPlant      = 4
	PrioEstimator  = 3
	PrioPursuer    = 2
	PrioTalker     = 1
	PrioReporter   = 1
	PrioCollector  = 0
)

// Controller states.
const (
	ControllerInit = iota
	ControllerRunning
	ControllerIdle
)

// Pursuer states. While tracking, the state is PursuerTracking plus the
// index of the target waypoint.
const (
	PursuerWaiting  = 0
	PursuerTracking = 1
)

func (r *Robot) calibrate(*cotask.Step) error {
	r.Plant.Reset()
	r.Observer.Reset(sim.State{})
	r.Channels.ClearQueues()
	r.Channels.Stop.Write(false)
	glog.Info("calibrated: robot at rest at origin")
	return nil
}

// controller runs a PI loop per wheel on the velocity setpoint plus or
// minus the steering offset, and publishes the wheel samples.
func (r *Robot) controller(st *cotask.Step) iter.Seq2[int, error] {
	return func(yield func(int, error) bool) {
		ch, tn := r.Channels, &r.Config.Tuning
		piL, piR := PI{Kp: tn.Kp, Ki: tn.Ki}, PI{Kp: tn.Kp, Ki: tn.Ki}
		slewL, slewR := Slew{MaxDelta: tn.MaxDelta}, Slew{MaxDelta: tn.MaxDelta}
		state := ControllerInit
		for {
			now := st.Now
			posL, velL, posR, velR := r.Plant.Encoders()
			switch state {
			case ControllerInit:
				piL.Reset(now)
				piR.Reset(now)
				state = ControllerRunning
			case ControllerRunning:
				cmd := ch.VelocitySetpoint.Read()
				if cmd == 0 {
					r.Plant.SetEffort(0, 0)
					slewL.Reset(0)
					slewR.Reset(0)
					ch.CmdLeft.Put(0)
					ch.CmdRight.Put(0)
					state = ControllerIdle
					break
				}
				off := ch.Offset.Read()
				left := slewL.Limit(piL.Signal(cmd+off, velL, now))
				right := slewR.Limit(piR.Signal(cmd-off, velR, now))
				r.Plant.SetEffort(left, right)
				ch.CmdLeft.Put(left)
				ch.CmdRight.Put(right)
			case ControllerIdle:
				ch.CmdLeft.Put(0)
				ch.CmdRight.Put(0)
				if ch.VelocitySetpoint.Read() != 0 {
					r.Plant.ZeroEncoders()
					piL.Reset(now)
					piR.Reset(now)
					state = ControllerRunning
				}
			}
			t := float64(now) / float64(time.Millisecond)
			ch.TimeLeft.Put(t)
			ch.PosLeft.Put(posL)
			ch.VelLeft.Put(velL)
			ch.TimeRight.Put(t)
			ch.PosRight.Put(posR)
			ch.VelRight.Put(velR)
			if !yield(state, nil) {
				return
			}
		}
	}
}

// plant advances the simulated physics and samples the IMU.
func (r *Robot) plant(st *cotask.Step) error {
	r.Plant.Advance(st.Now)
	r.Channels.Heading.Put(r.Plant.IMUHeading())
	return nil
}

// estimator runs the state observer on the latest samples.
func (r *Robot) estimator() cotask.RoutineFunc {
	var last time.Duration
	return func(st *cotask.Step) error {
		ch := r.Channels
		dt := st.Now - last
		if st.Run == 1 {
			dt = r.Config.Tuning.estimatorPeriod()
		}
		last = st.Now
		if ch.IMUOff.Read() {
			r.Observer.Gains.Heading = 0
		} else {
			r.Observer.Gains.Heading = sim.ObserverGains.Heading
		}
		y := sim.Measurement{
			Heading: ch.Heading.NewestOr(0),
			VL:      ch.VelLeft.NewestOr(0),
			VR:      ch.VelRight.NewestOr(0),
			SL:      ch.PosLeft.NewestOr(0),
			SR:      ch.PosRight.NewestOr(0),
		}
		s := r.Observer.Step(ch.CmdLeft.NewestOr(0), ch.CmdRight.NewestOr(0), y, dt)
		ch.X.Put(s.X)
		ch.Y.Put(s.Y)
		ch.Pose.Write(s.Pose())
		return nil
	}
}

// pursue steers along the course while the setpoint is not zero.
func (r *Robot) pursue(st *cotask.Step) error {
	ch := r.Channels
	if ch.VelocitySetpoint.Read() == 0 {
		ch.Offset.Write(0)
		st.State = PursuerWaiting
		return nil
	}
	offset, speed, ok := r.Pursuer.Steer(ch.Pose.Read())
	if !ok {
		ch.VelocitySetpoint.Write(0)
		ch.Offset.Write(0)
		ch.Stop.Write(true)
		glog.Infof("course complete at %v", ch.Pose.Read().Pos2D)
		if r.OnStop != nil {
			r.OnStop()
		}
		return cotask.Done
	}
	ch.VelocitySetpoint.Write(speed)
	ch.Offset.Write(offset)
	st.State = PursuerTracking + r.Pursuer.Target()
	return nil
}

// handleCommand serves command lines received by the talker.
func (r *Robot) handleCommand(cmd telemetry.Command) error {
	ch := r.Channels
	switch cmd.Name {
	case "SPD":
		v, err := cmd.Float()
		if err != nil {
			return err
		}
		ch.VelocitySetpoint.Write(v)
	case "STP":
		ch.VelocitySetpoint.Write(0)
	case "IMU":
		v, err := cmd.Float()
		if err != nil {
			return err
		}
		ch.IMUOff.Write(v == 0)
	default:
		return telemetry.ErrUnknownCommand
	}
	glog.V(1).Infof("command %v", cmd)
	return nil
}

func (t *Tuning) estimatorPeriod() time.Duration {
	return ms(t.EstimatorMS)
}
