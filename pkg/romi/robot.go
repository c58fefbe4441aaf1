package romi

import (
	"io"
	"strings"

	"github.com/robotalks/romi.go/pkg/chans"
	"github.com/robotalks/romi.go/pkg/cotask"
	fx "github.com/robotalks/romi.go/pkg/framework"
	"github.com/robotalks/romi.go/pkg/sim"
	"github.com/robotalks/romi.go/pkg/telemetry"
)

// Robot is the reference application: channels, the simulated plant and
// the task set, registered with a Scheduler.
type Robot struct {
	Config    *Config
	Channels  *Channels
	Plant     *Plant
	Observer  *sim.Model
	Pursuer   *Pursuer
	Talker    *telemetry.Talker
	Scheduler *cotask.Scheduler
	GC        cotask.GCStats

	// OnStop is called on the Scheduler goroutine when the course is
	// complete.
	OnStop func()
}

// New builds the robot. Telemetry frames are written to out, which may be
// nil.
func New(conf *Config, out io.Writer, opts ...cotask.SchedulerOption) (*Robot, error) {
	ch, err := NewChannels(conf.Tuning.Policy())
	if err != nil {
		return nil, err
	}
	r := &Robot{
		Config:    conf,
		Channels:  ch,
		Plant:     NewPlant(sim.RomiParams),
		Observer:  sim.NewModel(sim.RomiParams, sim.ObserverGains),
		Pursuer:   &Pursuer{Course: Course, Arrived: conf.Tuning.Arrived},
		Scheduler: cotask.NewScheduler(opts...),
	}
	r.Talker = &telemetry.Talker{
		Out:      out,
		RX:       ch.RX,
		Fields:   ch.SampleQueues(),
		Guards:   []*chans.Queue[float64]{ch.TimeLeft, ch.CmdLeft, ch.Heading},
		MinDepth: 2,
		Decimate: conf.Tuning.Decimate,
		Handler:  r.handleCommand,
	}
	ch.VelocitySetpoint.Write(conf.Speed)

	tn := &conf.Tuning
	var errs fx.AggregatedError
	task := func(name string, prio int, routine cotask.Routine, topts ...cotask.TaskOption) *cotask.Task {
		topts = append(topts, cotask.Priority(prio))
		if tn.TraceLimit > 0 {
			topts = append(topts, cotask.Trace(tn.TraceLimit))
		}
		t, err := cotask.NewTask(name, routine, topts...)
		errs.Add(err)
		return t
	}
	tasks := []*cotask.Task{
		task(TaskCalibrate, PrioCalibrate, cotask.Once(r.calibrate)),
		task(TaskController, PrioController, cotask.Generator(r.controller), cotask.Period(ms(tn.ControllerMS))),
		task(TaskPlant, PrioPlant, cotask.RoutineFunc(r.plant), cotask.Period(ms(tn.PlantMS))),
		task(TaskEstimator, PrioEstimator, r.estimator(), cotask.Period(ms(tn.EstimatorMS))),
		task(TaskPursuer, PrioPursuer, cotask.RoutineFunc(r.pursue), cotask.Period(ms(tn.PursuerMS))),
		task(TaskTalker, PrioTalker, r.Talker, cotask.Period(ms(tn.TalkerMS))),
		task(TaskCollector, PrioCollector, cotask.Collector(&r.GC), cotask.Period(ms(tn.CollectorMS))),
	}
	if err := errs.Aggregate(); err != nil {
		return nil, err
	}
	if err := r.Scheduler.Register(tasks...); err != nil {
		return nil, err
	}
	return r, nil
}

// Stopped tells whether the course is complete.
func (r *Robot) Stopped() bool {
	return r.Channels.Stop.Read()
}

// Meta describes the robot for monitors.
func (r *Robot) Meta() telemetry.RobotMeta {
	meta := telemetry.RobotMeta{
		Description: r.Config.Description,
		Session:     r.Config.Session,
	}
	for _, t := range r.Scheduler.Tasks() {
		meta.Tasks = append(meta.Tasks, t.Name())
	}
	for _, c := range r.Channels.Catalog.Channels() {
		meta.Channels = append(meta.Channels, c.Name())
	}
	return meta
}

// Report is the task profile table followed by the channel diagnostics.
// It must run on the Scheduler goroutine.
func (r *Robot) Report() string {
	var w strings.Builder
	w.WriteString(r.Scheduler.Report())
	w.WriteByte('\n')
	w.WriteString(r.Channels.Catalog.Report())
	w.WriteByte('\n')
	return w.String()
}

// Send queues a command line on the telemetry link as if it was received
// from the peer, e.g. "$SPD10". It must run on the Scheduler goroutine.
func (r *Robot) Send(line string) {
	for i := 0; i < len(line); i++ {
		r.Channels.RX.Put(line[i])
	}
	r.Channels.RX.Put('\r')
}
