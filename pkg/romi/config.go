// Package romi wires the reference robot application: a simulated Romi
// driving a waypoint course, on the cooperative kernel.
package romi

import (
	"flag"
	"fmt"
	"os"
	"time"

	yaml "github.com/goccy/go-yaml"
	"github.com/google/uuid"

	"github.com/robotalks/romi.go/pkg/chans"
	"github.com/robotalks/romi.go/pkg/telemetry"
)

// Tuning mirrors the YAML tuning file. Periods are in milliseconds.
type Tuning struct {
	ControllerMS int `yaml:"controller_ms"` // 10
	PlantMS      int `yaml:"plant_ms"`      // 10
	EstimatorMS  int `yaml:"estimator_ms"`  // 30
	PursuerMS    int `yaml:"pursuer_ms"`    // 30
	TalkerMS     int `yaml:"talker_ms"`     // 5
	ReportMS     int `yaml:"report_ms"`     // 500
	CollectorMS  int `yaml:"collector_ms"`  // 100
	TraceLimit   int `yaml:"trace_limit"`   // 0: off

	Kp       float64 `yaml:"kp"`
	Ki       float64 `yaml:"ki"`
	MaxDelta float64 `yaml:"max_delta"` // effort change per controller step
	Arrived  float64 `yaml:"arrived"`   // waypoint reached within, inches
	Decimate int     `yaml:"decimate"`  // telemetry sends every Nth sample

	QueuePolicy string `yaml:"queue_policy"`
}

// DefaultTuning returns the built-in tuning.
func DefaultTuning() Tuning {
	return Tuning{
		ControllerMS: 10,
		PlantMS:      10,
		EstimatorMS:  30,
		PursuerMS:    30,
		TalkerMS:     5,
		ReportMS:     500,
		CollectorMS:  100,
		Kp:           0.6,
		Ki:           15,
		MaxDelta:     25,
		Arrived:      2.5,
		Decimate:     2,
		QueuePolicy:  "evict",
	}
}

// LoadTuning reads a YAML file over the defaults. An empty path returns the
// defaults. Out of range values are clamped back to the defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tuning: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse tuning %s: %w", path, err)
	}
	t.clamp()
	return t, nil
}

func (t *Tuning) clamp() {
	def := DefaultTuning()
	for _, p := range []struct{ v, d *int }{
		{&t.ControllerMS, &def.ControllerMS},
		{&t.PlantMS, &def.PlantMS},
		{&t.EstimatorMS, &def.EstimatorMS},
		{&t.PursuerMS, &def.PursuerMS},
		{&t.TalkerMS, &def.TalkerMS},
		{&t.ReportMS, &def.ReportMS},
		{&t.CollectorMS, &def.CollectorMS},
	} {
		if *p.v <= 0 {
			*p.v = *p.d
		}
	}
	if t.TraceLimit < 0 {
		t.TraceLimit = 0
	}
	if t.MaxDelta <= 0 {
		t.MaxDelta = def.MaxDelta
	}
	if t.Arrived <= 0 {
		t.Arrived = def.Arrived
	}
	if t.Decimate <= 0 {
		t.Decimate = 1
	}
	if _, err := chans.ParsePolicy(t.QueuePolicy); err != nil {
		t.QueuePolicy = def.QueuePolicy
	}
}

// Policy returns the overflow policy of the telemetry queues.
func (t *Tuning) Policy() chans.Policy {
	p, err := chans.ParsePolicy(t.QueuePolicy)
	if err != nil {
		return chans.PolicyEvict
	}
	return p
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// Config provides the options to run a robot.
type Config struct {
	Robot       telemetry.RobotRef
	Description string
	// Session identifies this boot in reports.
	Session string

	// MQTTBrokerURL enables the MQTT reporter when not empty,
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	ReportFormat  string
	// TuningFile is a YAML file overriding DefaultTuning.
	TuningFile string
	// Speed is the initial velocity setpoint, in inches per second.
	Speed float64
	// Realtime runs on the system clock instead of a simulated one.
	Realtime bool
	// TelemetryOut is a file receiving telemetry frames.
	TelemetryOut string
	// Shell starts the interactive monitor.
	Shell bool

	Tuning Tuning
}

var defaultConfig = Config{
	Robot:        telemetry.RobotRef{Type: "romi"},
	Description:  "simulated Romi",
	ReportFormat: "proto",
	Speed:        12,
}

func init() {
	if val := os.Getenv("ROMI_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("ROMI_CONFIG"); val != "" {
		defaultConfig.TuningFile = val
	}
	defaultConfig.Robot.ID = MachineID()
	defaultConfig.Session = uuid.New().String()
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Robot.Type, "type", defaultConfig.Robot.Type, "Robot type")
	flag.StringVar(&defaultConfig.Robot.ID, "id", defaultConfig.Robot.ID, "Robot ID")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, reporting is off when empty")
	flag.StringVar(&defaultConfig.ReportFormat, "report-format", defaultConfig.ReportFormat, "Report encoding: proto or json")
	flag.StringVar(&defaultConfig.TuningFile, "config", defaultConfig.TuningFile, "YAML tuning file")
	flag.Float64Var(&defaultConfig.Speed, "speed", defaultConfig.Speed, "Initial velocity setpoint (in/s)")
	flag.BoolVar(&defaultConfig.Realtime, "realtime", defaultConfig.Realtime, "Run on the system clock")
	flag.StringVar(&defaultConfig.TelemetryOut, "telemetry-out", defaultConfig.TelemetryOut, "File receiving telemetry frames")
	flag.BoolVar(&defaultConfig.Shell, "shell", defaultConfig.Shell, "Start the monitor shell")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations and the tuning
// file loaded.
func NewConfig() (*Config, error) {
	conf := defaultConfig
	tuning, err := LoadTuning(conf.TuningFile)
	if err != nil {
		return nil, err
	}
	conf.Tuning = tuning
	return &conf, nil
}
