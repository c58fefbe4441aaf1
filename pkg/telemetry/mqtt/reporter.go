package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/romi.go/pkg/chans"
	"github.com/robotalks/romi.go/pkg/cotask"
	"github.com/robotalks/romi.go/pkg/telemetry"
)

// Format selects the payload encoding of reports.
type Format int

// Report formats.
const (
	FormatProto Format = iota
	FormatJSON
)

// ParseFormat parses "proto" or "json".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "proto", "":
		return FormatProto, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatProto, fmt.Errorf("unknown report format %q", s)
}

// Topics under the robot name.
const (
	TopicProfile  = "profile"
	TopicChannels = "channels"
	TopicMeta     = "meta"
	TopicControl  = "ctl"
)

// Reporter publishes kernel reports and executes control requests. As a
// Routine it publishes on every step from the Scheduler goroutine; as a
// framework.Runnable it owns the broker connection.
type Reporter struct {
	Client    *Client
	Robot     telemetry.RobotRef
	Meta      telemetry.RobotMeta
	Scheduler *cotask.Scheduler
	Catalog   *chans.Catalog
	GC        *cotask.GCStats
	Format    Format

	metaJSON  []byte
	published uint64
}

// NewReporter creates a Reporter for brokerURL. The robot meta is
// published retained and cleared by the broker through the will message
// when the connection is lost.
func NewReporter(brokerURL string, robot telemetry.RobotRef, meta telemetry.RobotMeta, s *cotask.Scheduler, c *chans.Catalog) (*Reporter, error) {
	if !robot.IsValid() {
		return nil, fmt.Errorf("robot type and id must be specified")
	}
	metaJSON, err := json.Marshal(&meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+robot.Name()+"/"+TopicMeta, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("romi:" + robot.Name())
	}
	r := &Reporter{
		Client:    NewClient(opts, topicPrefix),
		Robot:     robot,
		Meta:      meta,
		Scheduler: s,
		Catalog:   c,
		metaJSON:  metaJSON,
	}
	r.Client.OnConnect = func(*Client) { r.onConnected() }
	r.Client.Sub(r.topic(TopicControl), r.handleControl)
	return r, nil
}

// Name implements framework.Named.
func (r *Reporter) Name() string {
	return "mqtt-reporter"
}

// Run implements framework.Runnable.
func (r *Reporter) Run(ctx context.Context) error {
	token := r.Client.Connect()
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		glog.Warningf("mqtt connect: %v, retrying in background", token.Error())
	}
	<-ctx.Done()
	if r.Client.Client.IsConnected() {
		r.Client.PubWith(r.topic(TopicMeta), nil, 1, true).WaitTimeout(time.Second)
	}
	return r.Client.Close()
}

// Published returns the number of reports published.
func (r *Reporter) Published() uint64 {
	return r.published
}

// Step implements cotask.Routine. Publishing is asynchronous; a step
// never waits for the broker.
func (r *Reporter) Step(*cotask.Step) error {
	if !r.Client.Client.IsConnected() {
		return nil
	}
	profile, channels, err := r.Payloads()
	if err != nil {
		return err
	}
	r.Client.Pub(r.topic(TopicProfile), profile)
	r.Client.Pub(r.topic(TopicChannels), channels)
	r.published++
	return nil
}

// Payloads encodes the profile and channel reports.
func (r *Reporter) Payloads() (profile, channels []byte, err error) {
	session := r.Meta.Session
	tasks := telemetry.NewReport(r.Robot, session, r.Scheduler, nil)
	tasks.GC = r.GC
	if profile, err = r.encode(tasks); err != nil {
		return
	}
	channels, err = r.encode(telemetry.NewReport(r.Robot, session, nil, r.Catalog))
	return
}

func (r *Reporter) encode(report *telemetry.Report) ([]byte, error) {
	if r.Format == FormatJSON {
		s, err := report.JSON()
		return []byte(s), err
	}
	return report.Marshal()
}

func (r *Reporter) topic(name string) string {
	return r.Robot.Name() + "/" + name
}

func (r *Reporter) onConnected() {
	r.Client.PubWith(r.topic(TopicMeta), r.metaJSON, 1, true)
}

// handleControl runs on a paho goroutine and forwards the request to the
// Scheduler goroutine.
func (r *Reporter) handleControl(topic string, payload []byte) {
	var req telemetry.ControlRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		glog.Warningf("%s: invalid control request: %v", topic, err)
		return
	}
	r.Scheduler.Post(func() {
		if err := req.Apply(r.Scheduler); err != nil {
			glog.Warningf("control %s %q: %v", req.Action, req.Task, err)
			return
		}
		glog.Infof("control %s %q", req.Action, req.Task)
	})
}
