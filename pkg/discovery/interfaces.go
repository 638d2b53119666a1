package discovery

import "net"

// ipInterface is a local IPv4 address paired with its subnet's broadcast
// address. IPv6 is excluded (spec.md §1 Non-goal: "the protocol uses IPv4
// broadcast").
type ipInterface struct {
	ip        net.IP
	broadcast net.IP
}

// eligibleInterfaces enumerates local IPv4 interfaces with a usable
// broadcast address. Loopback is included only if allowLoopback is set
// (spec.md §4.4).
func eligibleInterfaces(allowLoopback bool) ([]ipInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var out []ipInterface
	for _, ifc := range ifaces {
		if ifc.Flags&net.FlagUp == 0 {
			continue
		}
		if ifc.Flags&net.FlagLoopback != 0 && !allowLoopback {
			continue
		}

		addrs, err := ifc.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipNet.IP.To4()
			if ip4 == nil {
				continue
			}
			bcast := broadcastAddr(ip4, ipNet.Mask)
			if bcast == nil {
				continue
			}
			out = append(out, ipInterface{ip: ip4, broadcast: bcast})
		}
	}
	return out, nil
}

// broadcastAddr computes the directed broadcast address for ip/mask, or
// nil if mask isn't a usable IPv4 prefix length.
func broadcastAddr(ip net.IP, mask net.IPMask) net.IP {
	ones, bits := mask.Size()
	if bits == 0 {
		// Non-canonical mask: no prefix length to derive a broadcast from.
		return nil
	}
	if bits == 128 {
		ones -= 96
	}
	if ones < 0 || ones > 32 {
		return nil
	}
	mask4 := net.CIDRMask(ones, 32)

	bcast := make(net.IP, net.IPv4len)
	for i := 0; i < net.IPv4len; i++ {
		bcast[i] = ip[i] | ^mask4[i]
	}
	return bcast
}
