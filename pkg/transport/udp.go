// Package transport provides the UDP datagram endpoints used to talk to
// HVAC devices: a unicast endpoint per device session and a broadcast
// endpoint per network interface for discovery.
package transport

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/pion/logging"
)

// DefaultPort is the UDP port all devices in this protocol family listen on.
const DefaultPort = 7000

// DefaultSendTimeout is the default write deadline Send sets on each
// write; a write that hits it returns ErrSendTimeout. Send's wait on the
// drain gate is capped at the smaller of this and drainPollInterval.
const DefaultSendTimeout = 10 * time.Second

// drainPollInterval bounds how long Send blocks on a closed drain gate
// before attempting the write anyway. There's no OS-level callback for
// "write backpressure cleared" on a datagram socket, so the write itself
// is the real probe; this just keeps a closed gate from stalling every
// subsequent Send for the full sendTimeout.
const drainPollInterval = 250 * time.Millisecond

// Config configures an Endpoint.
type Config struct {
	// ListenAddr is the local address to bind. For a unicast endpoint this
	// is typically ":0" (ephemeral port); for a broadcast endpoint it's the
	// chosen interface's local IP with port 0.
	ListenAddr string

	// Broadcast enables SO_BROADCAST/SO_REUSEADDR on the listening socket.
	// Set for discovery endpoints, left false for per-device endpoints.
	Broadcast bool

	// PeerAddr is the fixed destination used when Send is called without
	// an explicit address. Required for unicast endpoints; optional for
	// broadcast endpoints, which usually pass an address to Send directly.
	PeerAddr net.Addr

	// Handler is invoked for every received, non-empty datagram.
	Handler PacketHandler

	// SendTimeout is the write deadline Send sets on each write, and also
	// caps its drain-gate wait (together with drainPollInterval). Defaults
	// to DefaultSendTimeout.
	SendTimeout time.Duration

	// LoggerFactory builds the endpoint's logger. Logging is disabled if nil.
	LoggerFactory logging.LoggerFactory
}

// Endpoint is a UDP datagram socket with send-drain gating and an
// asynchronous receive loop. It has two construction modes: NewUnicast for
// a per-device connection and NewBroadcast for a per-interface discovery
// socket (spec section 4.3's "transport type with two construction modes").
// A third mode, NewFromConn, binds to an arbitrary net.PacketConn (a Pipe in
// tests) so the same read/send/gate machinery runs without real sockets.
type Endpoint struct {
	conn        net.PacketConn
	peer        net.Addr
	handler     PacketHandler
	sendTimeout time.Duration
	log         logging.LeveledLogger
	drain       *gate

	mu      sync.Mutex
	started bool
	closed  bool
	wg      sync.WaitGroup
	stopCh  chan struct{}
}

// NewUnicast opens an endpoint bound to an ephemeral local port with a
// fixed peer address. Used by a device session to talk to one device.
func NewUnicast(peer *net.UDPAddr, cfg Config) (*Endpoint, error) {
	cfg.ListenAddr = zeroIfEmpty(cfg.ListenAddr, ":0")
	cfg.PeerAddr = peer
	cfg.Broadcast = false
	return newEndpoint(cfg)
}

// NewBroadcast opens an endpoint bound to localAddr (typically an
// interface's own IP, port 0) with SO_BROADCAST and SO_REUSEADDR set.
// Used by discovery, one per eligible interface.
func NewBroadcast(localAddr string, cfg Config) (*Endpoint, error) {
	cfg.ListenAddr = zeroIfEmpty(localAddr, ":0")
	cfg.Broadcast = true
	return newEndpoint(cfg)
}

// NewFromConn wraps an already-open net.PacketConn (typically a
// PipePacketConn) in an Endpoint, skipping socket creation entirely. This is
// the constructor tests use to exercise the send/receive/gate logic against
// a Pipe instead of a real UDP socket.
func NewFromConn(conn net.PacketConn, cfg Config) (*Endpoint, error) {
	if cfg.Handler == nil {
		return nil, ErrNoHandler
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	e := &Endpoint{
		conn:        conn,
		peer:        cfg.PeerAddr,
		handler:     cfg.Handler,
		sendTimeout: cfg.SendTimeout,
		drain:       newGate(),
		stopCh:      make(chan struct{}),
	}
	if cfg.LoggerFactory != nil {
		e.log = cfg.LoggerFactory.NewLogger("transport")
	}
	return e, nil
}

func zeroIfEmpty(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func newEndpoint(cfg Config) (*Endpoint, error) {
	if cfg.Handler == nil {
		return nil, ErrNoHandler
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}

	var conn net.PacketConn
	var err error
	if cfg.Broadcast {
		lc := net.ListenConfig{Control: broadcastControl}
		conn, err = lc.ListenPacket(context.Background(), "udp4", cfg.ListenAddr)
	} else {
		conn, err = net.ListenPacket("udp4", cfg.ListenAddr)
	}
	if err != nil {
		return nil, err
	}

	e := &Endpoint{
		conn:        conn,
		peer:        cfg.PeerAddr,
		handler:     cfg.Handler,
		sendTimeout: cfg.SendTimeout,
		drain:       newGate(),
		stopCh:      make(chan struct{}),
	}
	if cfg.LoggerFactory != nil {
		e.log = cfg.LoggerFactory.NewLogger("transport")
	}
	return e, nil
}

// Start begins the receive loop. It is safe to call once per endpoint.
func (e *Endpoint) Start() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.started {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}
	e.started = true
	e.mu.Unlock()

	e.wg.Add(1)
	go e.readLoop()
	return nil
}

// LocalAddr returns the endpoint's bound local address.
func (e *Endpoint) LocalAddr() net.Addr {
	return e.conn.LocalAddr()
}

// Close stops the receive loop and releases the socket.
func (e *Endpoint) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.closed = true
	e.mu.Unlock()

	close(e.stopCh)
	e.conn.SetReadDeadline(time.Now())
	err := e.conn.Close()
	e.wg.Wait()
	return err
}

// Send writes data to addr, or to the endpoint's fixed peer if addr is
// nil. It waits for the drain gate to be open, bounded by a short poll
// interval, before writing; the write itself is then the real probe for
// whether backpressure has cleared.
func (e *Endpoint) Send(ctx context.Context, data []byte, addr net.Addr) error {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return ErrClosed
	}

	dst := addr
	if dst == nil {
		dst = e.peer
	}
	if dst == nil {
		return ErrInvalidAddress
	}

	poll := e.sendTimeout
	if poll > drainPollInterval {
		poll = drainPollInterval
	}
	if err := e.drain.wait(ctx, poll); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// The gate didn't reopen within the poll window. Fall through and
		// attempt the write anyway: a successful write is the only signal
		// this endpoint has that flow actually resumed, and a closed gate
		// must not block every subsequent Send forever (spec section 4.3's
		// "set when flow resumes"; spec section 5's "a timeout ... leaves
		// the transport usable").
	}

	e.conn.SetWriteDeadline(time.Now().Add(e.sendTimeout))
	n, err := e.conn.WriteTo(data, dst)
	if err == nil {
		e.drain.raise()
		if e.log != nil {
			e.log.Debugf("sent %d bytes to %s", n, dst)
		}
		return nil
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		e.drain.lower()
		if e.log != nil {
			e.log.Warnf("send to %s timed out mid-write", dst)
		}
		return ErrSendTimeout
	}
	if e.log != nil {
		e.log.Warnf("send to %s failed: %v", dst, err)
	}
	return err
}

func (e *Endpoint) readLoop() {
	defer e.wg.Done()

	buf := make([]byte, MaxPacketSize)
	for {
		select {
		case <-e.stopCh:
			return
		default:
		}

		n, addr, err := e.conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-e.stopCh:
				return
			default:
				if e.log != nil {
					e.log.Warnf("read error: %v", err)
				}
				continue
			}
		}
		if n == 0 {
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		if e.log != nil {
			e.log.Debugf("received %d bytes from %s", n, addr)
		}
		e.handler(&Packet{Data: data, Addr: addr})
	}
}
