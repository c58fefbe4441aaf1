package telemetry

import (
	"time"

	"github.com/golang/protobuf/jsonpb"
	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes"
	structpb "github.com/golang/protobuf/ptypes/struct"

	"github.com/robotalks/romi.go/pkg/chans"
	"github.com/robotalks/romi.go/pkg/cotask"
)

// Report is a snapshot of the kernel for remote monitoring.
type Report struct {
	Robot    RobotRef
	Session  string
	Time     time.Time
	Profiles []cotask.Profile
	Channels []chans.Stat
	GC       *cotask.GCStats
}

// NewReport snapshots a Scheduler and a Catalog. Either may be nil.
func NewReport(robot RobotRef, session string, s *cotask.Scheduler, c *chans.Catalog) *Report {
	r := &Report{Robot: robot, Session: session, Time: time.Now()}
	if s != nil {
		r.Profiles = s.ProfileReport()
	}
	if c != nil {
		r.Channels = c.Stats()
	}
	return r
}

// Struct converts the report into a protobuf Struct. Durations are in
// milliseconds.
func (r *Report) Struct() *structpb.Struct {
	fields := map[string]*structpb.Value{
		"robot":   stringValue(r.Robot.Name()),
		"session": stringValue(r.Session),
	}
	if !r.Time.IsZero() {
		if ts, err := ptypes.TimestampProto(r.Time); err == nil {
			fields["time"] = stringValue(ptypes.TimestampString(ts))
		}
	}
	if len(r.Profiles) > 0 {
		tasks := make([]*structpb.Value, len(r.Profiles))
		for n, p := range r.Profiles {
			tasks[n] = structValue(ProfileStruct(p))
		}
		fields["tasks"] = listValue(tasks)
	}
	if len(r.Channels) > 0 {
		chs := make([]*structpb.Value, len(r.Channels))
		for n, st := range r.Channels {
			chs[n] = structValue(ChannelStruct(st))
		}
		fields["channels"] = listValue(chs)
	}
	if gc := r.GC; gc != nil {
		fields["gc"] = structValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"collections": numberValue(float64(gc.Collections)),
			"last_pause":  numberValue(millis(gc.LastPause)),
			"heap_alloc":  numberValue(float64(gc.HeapAlloc)),
		}})
	}
	return &structpb.Struct{Fields: fields}
}

// Marshal encodes the report in protobuf wire format.
func (r *Report) Marshal() ([]byte, error) {
	return proto.Marshal(r.Struct())
}

// JSON encodes the report as JSON.
func (r *Report) JSON() (string, error) {
	m := jsonpb.Marshaler{OrigName: true}
	return m.MarshalToString(r.Struct())
}

// UnmarshalReport decodes a report encoded by Marshal.
func UnmarshalReport(data []byte) (*structpb.Struct, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ProfileStruct converts one task profile.
func ProfileStruct(p cotask.Profile) *structpb.Struct {
	fields := map[string]*structpb.Value{
		"name":         stringValue(p.Name),
		"priority":     numberValue(float64(p.Priority)),
		"period":       numberValue(millis(p.Period)),
		"state":        stringValue(p.State.String()),
		"enabled":      boolValue(p.Enabled),
		"runs":         numberValue(float64(p.Runs)),
		"avg_duration": numberValue(millis(p.AvgDuration)),
		"max_duration": numberValue(millis(p.MaxDuration)),
		"avg_lateness": numberValue(millis(p.AvgLateness)),
		"max_lateness": numberValue(millis(p.MaxLateness)),
	}
	if p.Fault != "" {
		fields["fault"] = stringValue(p.Fault)
	}
	return &structpb.Struct{Fields: fields}
}

// ChannelStruct converts one channel stat.
func ChannelStruct(st chans.Stat) *structpb.Struct {
	fields := map[string]*structpb.Value{
		"name": stringValue(st.Name),
		"kind": stringValue(st.Kind.String()),
		"type": stringValue(st.Type),
	}
	if st.Kind == chans.KindQueue {
		fields["policy"] = stringValue(st.Policy.String())
		fields["depth"] = numberValue(float64(st.Depth))
		fields["capacity"] = numberValue(float64(st.Capacity))
		fields["max_depth"] = numberValue(float64(st.MaxDepth))
		fields["overflows"] = numberValue(float64(st.Overflows))
	} else {
		fields["writes"] = numberValue(float64(st.Writes))
	}
	return &structpb.Struct{Fields: fields}
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func stringValue(s string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: s}}
}

func numberValue(v float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: v}}
}

func boolValue(v bool) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_BoolValue{BoolValue: v}}
}

func structValue(s *structpb.Struct) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StructValue{StructValue: s}}
}

func listValue(values []*structpb.Value) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_ListValue{ListValue: &structpb.ListValue{Values: values}}}
}
