package env

import (
	"hash/crc32"

	"github.com/denisbrodbeck/machineid"
)

const appID = "zolink"

// MachineID retrieves the ID identifying the machine for this app.
func MachineID() (string, error) {
	return machineid.ProtectedID(appID)
}

// DefaultNodeID derives a stable node ID from the machine ID. The result
// is never the broadcast ID.
func DefaultNodeID() byte {
	id, err := MachineID()
	if err != nil {
		return 1
	}
	return nodeIDFrom(id)
}

func nodeIDFrom(machineID string) byte {
	id := byte(crc32.ChecksumIEEE([]byte(machineID)))
	if id == 0 {
		id = 1
	}
	return id
}
