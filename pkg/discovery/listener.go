package discovery

// Listener receives device discovery events. Implementations should
// return quickly: listeners are called one after another, so a slow
// listener delays delivery to the others. A panicking listener is
// recovered and does not stop delivery to the others (spec section 4.4).
type Listener interface {
	// DeviceFound is called once per newly discovered device, including
	// a replay of every already-known device when the listener is
	// registered (so late joiners see the full set).
	DeviceFound(info DeviceInfo)
	// DeviceUpdate is called when a known device reappears at a new
	// address.
	DeviceUpdate(info DeviceInfo)
}
