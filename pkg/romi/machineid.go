package romi

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
	"github.com/google/uuid"
)

// MachineID retrieves an ID identifying the machine, derived from the
// host's machine id so the raw value isn't published. Hosts without one
// get a random ID.
func MachineID() string {
	id, err := machineid.ProtectedID("romi")
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		return uuid.New().String()[:8]
	}
	if len(id) > 16 {
		id = id[:16]
	}
	return id
}
