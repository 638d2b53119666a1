package transport

import "net"

// MaxPacketSize is the largest UDP datagram the transport will parse.
// Real devices occasionally send oversized responses; anything beyond
// this is truncated before being handed to the caller (spec section 4.3).
const MaxPacketSize = 2048

// Packet is a raw datagram delivered to an Endpoint's PacketHandler.
type Packet struct {
	// Data is the raw bytes received from the wire, truncated to
	// MaxPacketSize if the datagram was larger.
	Data []byte
	// Addr identifies the sender. It is a *net.UDPAddr for real sockets and
	// a PipeAddr when the Endpoint is bound to a Pipe in tests.
	Addr net.Addr
}

// PacketHandler is invoked for every non-empty datagram an Endpoint reads.
// Implementations should return quickly; slow handlers should hand work
// off to another goroutine rather than block the read loop.
type PacketHandler func(pkt *Packet)
