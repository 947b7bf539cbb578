package config

// Device describes one physical locker compartment as provisioned on the
// controller board: which relay actuates the door and which pin carries the
// door-closed sensor.
type Device struct {
	LockerID  int
	RelayPin  int
	SensorPin int
	Reserved  bool
}

const DeviceType = "arduino_mega"

// Devices returns the fixed provisioning table for the single closet. The
// reserved set from the configuration overrides the built-in default (locker
// 16 houses the controller enclosure).
func (c *Config) Devices() []Device {
	devices := make([]Device, 0, 16)
	for id := 1; id <= 16; id++ {
		devices = append(devices, Device{
			LockerID:  id,
			RelayPin:  20 + id*2, // relays on even pins 22..52
			SensorPin: 21 + id*2, // sensors on the adjacent odd pins
			Reserved:  c.ReservedLockers[id],
		})
	}
	return devices
}
