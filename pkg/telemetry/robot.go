package telemetry

// RobotRef identifies a robot on the network side.
type RobotRef struct {
	// Type is the robot type, e.g. "romi".
	Type string
	// ID is unique ID of the device.
	ID string
}

// Name retrieves the name from ref.
func (r RobotRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates RobotRef is valid.
func (r RobotRef) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// RobotMeta is published, retained, for monitors discovering robots.
type RobotMeta struct {
	Description string            `json:"description,omitempty"`
	Session     string            `json:"session,omitempty"`
	Tasks       []string          `json:"tasks,omitempty"`
	Channels    []string          `json:"channels,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}
