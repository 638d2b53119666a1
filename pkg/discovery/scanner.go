// Package discovery implements broadcast-based enumeration of devices
// across eligible network interfaces, with deduplication, address-change
// tracking, and listener fan-out (spec section 4.4).
package discovery

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/climatelan/greelink/pkg/cipher"
	"github.com/climatelan/greelink/pkg/envelope"
	"github.com/climatelan/greelink/pkg/transport"
)

// Scanner enumerates eligible interfaces, broadcasts scan requests, and
// fans discovered/updated devices out to registered listeners.
type Scanner struct {
	cfg config
	log logging.LeveledLogger

	genericV1 cipher.Cipher
	genericV2 cipher.Cipher

	mu        sync.Mutex
	known     []DeviceInfo
	listeners []Listener

	// notifyMu serializes listener callbacks so device_found/device_update
	// events are delivered in arrival order even though packets for
	// different interfaces are handled by different goroutines.
	notifyMu sync.Mutex
}

// NewScanner builds a Scanner. It performs no I/O until Scan is called.
func NewScanner(opts ...Option) *Scanner {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Scanner{
		cfg:       cfg,
		genericV1: cipher.NewGeneric(cipher.V1),
		genericV2: cipher.NewGeneric(cipher.V2),
	}
	if cfg.loggerFactory != nil {
		s.log = cfg.loggerFactory.NewLogger("discovery")
	}
	return s
}

// AddListener registers l and immediately replays DeviceFound for every
// currently known device, so a late-joining listener sees the full set.
func (s *Scanner) AddListener(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	snapshot := append([]DeviceInfo(nil), s.known...)
	s.mu.Unlock()

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	for _, info := range snapshot {
		s.safeNotify(l, info, true)
	}
}

// RemoveListener unregisters l. It is idempotent.
func (s *Scanner) RemoveListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, x := range s.listeners {
		if x == l {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// Known returns a snapshot of every device discovered so far.
func (s *Scanner) Known() []DeviceInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]DeviceInfo(nil), s.known...)
}

// Scan broadcasts a scan request on every eligible interface and collects
// responses until wait elapses, or ctx is cancelled. A non-positive wait
// is replaced by the configured timeout (see WithTimeout). It returns the
// full known-device list afterward (spec section 4.4).
func (s *Scanner) Scan(ctx context.Context, wait time.Duration) ([]DeviceInfo, error) {
	if wait <= 0 {
		wait = s.cfg.timeout
	}
	ifaces, err := eligibleInterfaces(s.cfg.allowLoopback)
	if err != nil {
		return nil, err
	}
	if len(ifaces) == 0 {
		return nil, ErrNoInterfaces
	}

	var wg sync.WaitGroup
	for _, ifc := range ifaces {
		wg.Add(1)
		go func(ifc ipInterface) {
			defer wg.Done()
			if err := s.scanInterface(ctx, ifc, wait); err != nil && s.log != nil {
				s.log.Warnf("scan on %s failed: %v", ifc.ip, err)
			}
		}(ifc)
	}
	wg.Wait()

	return s.Known(), nil
}

func (s *Scanner) scanInterface(ctx context.Context, ifc ipInterface, wait time.Duration) error {
	ep, err := transport.NewBroadcast(ifc.ip.String()+":0", transport.Config{
		Handler:       s.handlePacket,
		LoggerFactory: s.cfg.loggerFactory,
	})
	if err != nil {
		return err
	}
	defer ep.Close()

	if err := ep.Start(); err != nil {
		return err
	}

	data, err := envelope.Wrap(envelope.KindScan, "", nil, true, nil)
	if err != nil {
		return err
	}

	dst := &net.UDPAddr{IP: ifc.broadcast, Port: s.cfg.port}
	sendCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	if err := ep.Send(sendCtx, data, dst); err != nil {
		return err
	}

	<-sendCtx.Done()
	return nil
}

// handlePacket is the Endpoint handler for every broadcast endpoint
// opened by Scan. A responding device's cipher scheme isn't known ahead
// of time, so both generic ciphers are tried in turn.
func (s *Scanner) handlePacket(pkt *transport.Packet) {
	kind, inner, err := envelope.Unwrap(pkt.Data, s.genericV1, nil)
	if err != nil {
		kind, inner, err = envelope.Unwrap(pkt.Data, s.genericV2, nil)
	}
	if err != nil {
		if s.log != nil {
			s.log.Debugf("discovery: undecodable response from %s: %v", pkt.Addr, err)
		}
		return
	}
	if kind != envelope.KindDev {
		return
	}

	s.ingest(deviceInfoFromPacket(pkt.Addr, inner))
}

func deviceInfoFromPacket(addr net.Addr, inner map[string]interface{}) DeviceInfo {
	var ip net.IP
	var port int
	if udpAddr, ok := addr.(*net.UDPAddr); ok {
		ip = udpAddr.IP
		port = udpAddr.Port
	}

	mac, _ := inner["mac"].(string)
	if mac == "" {
		mac, _ = inner["cid"].(string)
	}
	name, _ := inner["name"].(string)
	brand, _ := inner["brand"].(string)
	model, _ := inner["model"].(string)
	version, _ := inner["ver"].(string)

	return NewDeviceInfo(ip, port, mac, name, brand, model, version)
}

// ingest applies the deduplication/update rule from spec section 4.4 and
// fires the appropriate listener event.
func (s *Scanner) ingest(info DeviceInfo) {
	// Holding notifyMu across the update and its notification keeps events
	// in the order ingest calls applied them to the known list.
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	idx := -1
	for i, known := range s.known {
		if known.Equal(info) {
			idx = i
			break
		}
	}

	if idx == -1 {
		s.known = append(s.known, info)
		s.mu.Unlock()
		s.notifyAll(info, true)
		return
	}

	existing := s.known[idx]
	if existing.IP.Equal(info.IP) && existing.Port == info.Port {
		s.mu.Unlock()
		return
	}

	s.known[idx] = info
	s.mu.Unlock()
	s.notifyAll(info, false)
}

// notifyAll must be called with notifyMu held.
func (s *Scanner) notifyAll(info DeviceInfo, found bool) {
	s.mu.Lock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		s.safeNotify(l, info, found)
	}
}

func (s *Scanner) safeNotify(l Listener, info DeviceInfo, found bool) {
	defer func() {
		if r := recover(); r != nil && s.log != nil {
			s.log.Warnf("discovery: listener panic: %v", r)
		}
	}()
	if found {
		l.DeviceFound(info)
	} else {
		l.DeviceUpdate(info)
	}
}
