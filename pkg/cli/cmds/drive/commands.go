// Package drive adds the robot command lines to the monitor shell.
package drive

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/romi.go/pkg/cli/sh"
)

// SpeedLine formats the velocity setpoint command.
func SpeedLine(speed float64) string {
	return "$SPD" + strconv.FormatFloat(speed, 'f', -1, 64)
}

// IMULine formats the command switching the IMU heading on or off.
func IMULine(on bool) string {
	if on {
		return "$IMU1"
	}
	return "$IMU0"
}

var (
	// SpeedCmd sets the velocity setpoint.
	SpeedCmd = ishell.Cmd{
		Name:    "speed",
		Aliases: []string{"spd"},
		Help:    "SPEED(in/s)",
		Func: sh.MustTakeCommands(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("SPEED required"))
				return
			}
			val, err := strconv.ParseFloat(c.Args[0], 64)
			if err != nil {
				c.Err(fmt.Errorf("Invalid SPEED: %v", err))
				return
			}
			sh.SendCommand(c, SpeedLine(val))
		}),
	}

	// StopCmd zeroes the velocity setpoint.
	StopCmd = ishell.Cmd{
		Name:    "stop",
		Aliases: []string{"stp"},
		Help:    "stop driving",
		Func: sh.MustTakeCommands(func(c *ishell.Context) {
			sh.SendCommand(c, "$STP")
		}),
	}

	// IMUCmd switches between IMU and observer heading.
	IMUCmd = ishell.Cmd{
		Name: "imu",
		Help: "on|off",
		Func: sh.MustTakeCommands(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("on|off required"))
				return
			}
			switch c.Args[0] {
			case "on", "1":
				sh.SendCommand(c, IMULine(true))
			case "off", "0":
				sh.SendCommand(c, IMULine(false))
			default:
				c.Err(fmt.Errorf("Invalid argument: %s", c.Args[0]))
			}
		}),
	}
)

func init() {
	sh.AddCmds(
		&SpeedCmd,
		&StopCmd,
		&IMUCmd,
	)
}
