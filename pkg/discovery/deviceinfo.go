package discovery

import "net"

// DeviceInfo is the identity and network coordinates of a discovered
// device. Equality considers mac, name, brand, model, and version only;
// ip and port are excluded so the same device reappearing at a new
// address is recognized rather than treated as new (spec section 3).
type DeviceInfo struct {
	IP      net.IP
	Port    int
	MAC     string
	Name    string
	Brand   string
	Model   string
	Version string
}

// NewDeviceInfo builds a DeviceInfo, defaulting Name to MAC when name is
// empty.
func NewDeviceInfo(ip net.IP, port int, mac, name, brand, model, version string) DeviceInfo {
	if name == "" {
		name = mac
	}
	return DeviceInfo{
		IP:      ip,
		Port:    port,
		MAC:     mac,
		Name:    name,
		Brand:   brand,
		Model:   model,
		Version: version,
	}
}

// Equal reports whether d and other identify the same device, ignoring
// network address.
func (d DeviceInfo) Equal(other DeviceInfo) bool {
	return d.MAC == other.MAC &&
		d.Name == other.Name &&
		d.Brand == other.Brand &&
		d.Model == other.Model &&
		d.Version == other.Version
}
