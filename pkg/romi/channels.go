package romi

import (
	"github.com/robotalks/romi.go/pkg/chans"
	fx "github.com/robotalks/romi.go/pkg/framework"
	"github.com/robotalks/romi.go/pkg/sim"
)

// Channel names.
const (
	ChanVelocitySetpoint = "velocity_setpoint"
	ChanOffset           = "offset"
	ChanStop             = "stop"
	ChanIMUOff           = "imu_off"
	ChanPose             = "pose"
	ChanCmdLeft          = "cmd_left"
	ChanCmdRight         = "cmd_right"
	ChanTimeLeft         = "time_left"
	ChanPosLeft          = "pos_left"
	ChanVelLeft          = "vel_left"
	ChanTimeRight        = "time_right"
	ChanPosRight         = "pos_right"
	ChanVelRight         = "vel_right"
	ChanHeading          = "heading"
	ChanX                = "x"
	ChanY                = "y"
	ChanRX               = "rx"
)

// Channels are the Shares and Queues connecting the robot tasks.
type Channels struct {
	// VelocitySetpoint is the forward speed command, in/s.
	VelocitySetpoint *chans.Share[float64]
	// Offset is added to the left wheel and subtracted from the right.
	Offset *chans.Share[float64]
	// Stop is raised once the course is complete.
	Stop *chans.Share[bool]
	// IMUOff cuts the heading feedback of the estimator.
	IMUOff *chans.Share[bool]
	// Pose is the latest estimated pose.
	Pose *chans.Share[sim.Pose2D]

	CmdLeft, CmdRight *chans.Queue[float64]
	// Wheel samples from the controller; time in milliseconds.
	TimeLeft, PosLeft, VelLeft    *chans.Queue[float64]
	TimeRight, PosRight, VelRight *chans.Queue[float64]
	// Heading is the IMU heading in radians.
	Heading *chans.Queue[float64]
	// X, Y are the estimated position in inches.
	X, Y *chans.Queue[float64]
	// RX holds bytes received on the telemetry link.
	RX *chans.Queue[byte]

	Catalog *chans.Catalog
}

// NewChannels creates all channels and indexes them in a Catalog. policy
// applies to the sample queues; RX always evicts.
func NewChannels(policy chans.Policy) (*Channels, error) {
	c := &Channels{
		VelocitySetpoint: chans.NewShare(ChanVelocitySetpoint, 0.0),
		Offset:           chans.NewShare(ChanOffset, 0.0),
		Stop:             chans.NewShare(ChanStop, false),
		IMUOff:           chans.NewShare(ChanIMUOff, false),
		Pose:             chans.NewShare(ChanPose, sim.Pose2D{}),
		Catalog:          chans.NewCatalog(),
	}
	var errs fx.AggregatedError
	queue := func(name string, capacity int) *chans.Queue[float64] {
		q, err := chans.NewQueue[float64](name, capacity, policy)
		errs.Add(err)
		return q
	}
	c.CmdLeft = queue(ChanCmdLeft, 10)
	c.CmdRight = queue(ChanCmdRight, 10)
	c.TimeLeft = queue(ChanTimeLeft, 20)
	c.PosLeft = queue(ChanPosLeft, 20)
	c.VelLeft = queue(ChanVelLeft, 20)
	c.TimeRight = queue(ChanTimeRight, 20)
	c.PosRight = queue(ChanPosRight, 20)
	c.VelRight = queue(ChanVelRight, 20)
	c.Heading = queue(ChanHeading, 20)
	c.X = queue(ChanX, 10)
	c.Y = queue(ChanY, 10)
	rx, err := chans.NewQueue[byte](ChanRX, 64, chans.PolicyEvict)
	errs.Add(err)
	c.RX = rx
	if err := errs.Aggregate(); err != nil {
		return nil, err
	}

	if err := c.Catalog.Add(
		c.VelocitySetpoint, c.Offset, c.Stop, c.IMUOff, c.Pose,
		c.CmdLeft, c.CmdRight,
		c.TimeLeft, c.PosLeft, c.VelLeft,
		c.TimeRight, c.PosRight, c.VelRight,
		c.Heading, c.X, c.Y, c.RX,
	); err != nil {
		return nil, err
	}
	return c, nil
}

// SampleQueues are the queues streamed by the talker, in frame order.
func (c *Channels) SampleQueues() []*chans.Queue[float64] {
	return []*chans.Queue[float64]{
		c.TimeLeft, c.TimeRight,
		c.PosLeft, c.VelLeft, c.VelRight, c.PosRight,
		c.CmdLeft, c.CmdRight,
		c.Heading, c.X, c.Y,
	}
}

// ClearQueues empties every sample queue.
func (c *Channels) ClearQueues() {
	for _, q := range c.SampleQueues() {
		q.Clear()
	}
}
