package main

//go-build: CGO_ENABLED=0

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/romi.go/pkg/cli/sh"
	"github.com/robotalks/romi.go/pkg/cotask"
	fx "github.com/robotalks/romi.go/pkg/framework"
	"github.com/robotalks/romi.go/pkg/romi"
	"github.com/robotalks/romi.go/pkg/telemetry/mqtt"

	_ "github.com/robotalks/romi.go/pkg/cli/cmds/drive"
)

// memoryLimit is the soft limit past which the runtime collects even
// though the automatic collector is off.
const memoryLimit = 64 << 20

func init() {
	romi.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf, err := romi.NewConfig()
	if err != nil {
		log.Fatalln(err)
	}

	restore := cotask.ManualGC(memoryLimit)
	defer restore()

	var opts []cotask.SchedulerOption
	if conf.Realtime {
		opts = append(opts, cotask.WithIdle(cotask.IdleSleep(10*time.Millisecond)))
	} else {
		clock := &cotask.ManualClock{}
		opts = append(opts, cotask.WithClock(clock), cotask.WithIdle(cotask.IdleAdvance(clock, time.Millisecond)))
	}

	var out io.Writer
	if conf.TelemetryOut != "" {
		f, err := os.Create(conf.TelemetryOut)
		if err != nil {
			log.Fatalln(err)
		}
		defer f.Close()
		w := bufio.NewWriter(f)
		defer w.Flush()
		out = w
	}

	robot, err := romi.New(conf, out, opts...)
	if err != nil {
		log.Fatalln(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner := fx.NewRunnerWith(ctx).HandleSignals()
	if !conf.Shell {
		robot.OnStop = func() {
			glog.Info("course complete")
			cancel()
		}
	}

	if conf.MQTTBrokerURL != "" {
		reporter, err := mqtt.NewReporter(conf.MQTTBrokerURL, conf.Robot, robot.Meta(), robot.Scheduler, robot.Channels.Catalog)
		if err != nil {
			log.Fatalln(err)
		}
		if reporter.Format, err = mqtt.ParseFormat(conf.ReportFormat); err != nil {
			log.Fatalln(err)
		}
		reporter.GC = &robot.GC
		task, err := cotask.NewTask(romi.TaskReporter, reporter,
			cotask.Priority(romi.PrioReporter),
			cotask.Period(time.Duration(conf.Tuning.ReportMS)*time.Millisecond))
		if err != nil {
			log.Fatalln(err)
		}
		if err := robot.Scheduler.Register(task); err != nil {
			log.Fatalln(err)
		}
		runner.Go(reporter)
	}

	runner.Go(fx.NamedRun("scheduler", robot.Scheduler))

	if conf.Shell {
		shell := sh.New(&sh.Target{
			Robot:     conf.Robot,
			Session:   conf.Session,
			Scheduler: robot.Scheduler,
			Catalog:   robot.Channels.Catalog,
			GC:        &robot.GC,
			Send:      robot.Send,
		})
		runner.Go(fx.NamedRun("shell", fx.RunFunc(func(context.Context) error {
			shell.Run(flag.Args()...)
			return nil
		})))
	}

	if err := runner.Wait(); err != nil {
		glog.Errorf("stopped: %v", err)
	}
	fmt.Print(robot.Report())
}
