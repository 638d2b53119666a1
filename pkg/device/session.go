// Package device implements the per-device bind handshake, property
// cache with dirty tracking, temperature-unit conversion, and
// firmware-derived behavior selection described in spec section 4.5.
package device

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/climatelan/greelink/pkg/cipher"
	"github.com/climatelan/greelink/pkg/discovery"
	"github.com/climatelan/greelink/pkg/dispatch"
	"github.com/climatelan/greelink/pkg/envelope"
	"github.com/climatelan/greelink/pkg/transport"
)

// allStatusKeys is the full set of property keys requested by
// UpdateState's status call (spec section 4.5, "full list of supported
// property keys").
var allStatusKeys = []string{
	"Pow", "Mod", "SetTem", "TemUn", "TemRec", "TemSen", "WdSpd",
	"Air", "Blo", "Health", "SwhSlp", "SlpMod", "Lig",
	"SwingLfRig", "SwUpDn", "Quiet", "Tur", "StHt", "SvSt", "HeatCoolType",
	"Dmod", "Dwet", "DwatSen", "Dfltr", "DwatFul",
}

// Session is a bound or unbound connection to one device: it owns the
// property cache, dirty set, and UDP endpoint for a single DeviceInfo.
type Session struct {
	cfg config
	log logging.LeveledLogger

	// reqMu serializes Bind/UpdateState/PushStateUpdate so the
	// request/response protocol (which carries no request id) is never
	// interleaved on this session (spec section 5).
	reqMu sync.Mutex

	// mu protects every field below, all of which may be read by typed
	// accessors from any goroutine while a request is in flight.
	mu            sync.Mutex
	info          discovery.DeviceInfo
	ep            *transport.Endpoint
	sessionKey    []byte
	bound         bool
	ready         bool
	cache         map[string]interface{}
	dirty         map[string]struct{}
	firmwareID    string
	firmwareKnown bool
	firmwareMajor string
	firmwareV4    bool
	pending       chan struct{}

	dispatcher *dispatch.Dispatcher
}

// NewSession builds a Session for info. No I/O is performed until Bind,
// UpdateState, or PushStateUpdate is called.
func NewSession(info discovery.DeviceInfo, opts ...Option) *Session {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Session{
		cfg:   cfg,
		info:  info,
		cache: make(map[string]interface{}),
		dirty: make(map[string]struct{}),
	}
	if cfg.loggerFactory != nil {
		s.log = cfg.loggerFactory.NewLogger("device")
	}

	s.dispatcher = dispatch.New(cfg.loggerFactory)
	s.dispatcher.OnBindOK(s.handleBindOK)
	s.dispatcher.OnData(s.handleData)
	s.dispatcher.OnResult(s.handleResult)

	return s
}

// Bound reports whether the session has a session key.
func (s *Session) Bound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound
}

// Ready reports whether the session has completed its bind handshake and
// can serve status/cmd requests.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// DeviceInfo returns the session's identity and network coordinates.
func (s *Session) DeviceInfo() discovery.DeviceInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

// FirmwareVersion returns the major firmware version derived from the
// device's hid string, "4" when a sensor reading below the v3 offset forces
// v4 semantics, or "" if not yet known.
func (s *Session) FirmwareVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.firmwareMajor
}

// IsFirmwareV4 reports whether the device is treated under v4 temperature
// semantics (spec section 4.5).
func (s *Session) IsFirmwareV4() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.firmwareV4
}

// Close releases the session's UDP endpoint, if one was opened.
func (s *Session) Close() error {
	s.reqMu.Lock()
	defer s.reqMu.Unlock()
	if s.ep == nil {
		return nil
	}
	err := s.ep.Close()
	s.ep = nil
	return err
}

// Bind establishes the session key used for all subsequent status/cmd
// exchanges (spec section 4.5). If key is non-nil it's adopted directly
// with no I/O; otherwise a bind request/bindok round trip is performed.
func (s *Session) Bind(ctx context.Context, key []byte, spec cipher.Spec) error {
	s.reqMu.Lock()
	defer s.reqMu.Unlock()
	return s.doBind(ctx, key, spec)
}

func (s *Session) doBind(ctx context.Context, key []byte, spec cipher.Spec) error {
	if key != nil {
		s.mu.Lock()
		s.sessionKey = append([]byte(nil), key...)
		s.cfg.cipherSpec = spec
		s.bound = true
		s.ready = true
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	if s.info.IP == nil {
		s.mu.Unlock()
		return ErrIncompleteDeviceInfo
	}
	s.mu.Unlock()

	if err := s.ensureEndpoint(); err != nil {
		return err
	}

	generic := cipher.NewGeneric(spec)
	data, err := envelope.Wrap(envelope.KindBind, s.info.MAC, map[string]interface{}{"uid": 0}, true, generic)
	if err != nil {
		return err
	}

	err = s.awaitResponse(ctx, func() error { return s.ep.Send(ctx, data, nil) })
	if err != nil {
		return err
	}

	s.mu.Lock()
	bound := s.bound
	s.mu.Unlock()
	if !bound {
		return ErrNotBound
	}
	return nil
}

func (s *Session) ensureEndpoint() error {
	s.mu.Lock()
	if s.ep != nil {
		s.mu.Unlock()
		return nil
	}
	peer := &net.UDPAddr{IP: s.info.IP, Port: portOrDefault(s.info.Port)}
	s.mu.Unlock()

	ep, err := transport.NewUnicast(peer, transport.Config{
		Handler:       s.handlePacket,
		SendTimeout:   s.cfg.timeout,
		LoggerFactory: s.cfg.loggerFactory,
	})
	if err != nil {
		return err
	}
	if err := ep.Start(); err != nil {
		return err
	}

	s.mu.Lock()
	s.ep = ep
	s.mu.Unlock()
	return nil
}

func portOrDefault(port int) int {
	if port == 0 {
		return transport.DefaultPort
	}
	return port
}

// UpdateState refreshes the property cache from the device's current
// state (spec section 4.5).
func (s *Session) UpdateState(ctx context.Context) error {
	s.reqMu.Lock()
	defer s.reqMu.Unlock()

	s.mu.Lock()
	bound := s.bound
	s.mu.Unlock()
	if !bound {
		if err := s.doBind(ctx, nil, s.cfg.cipherSpec); err != nil {
			return err
		}
	}

	data, err := s.wrapSession(envelope.KindStatus, map[string]interface{}{"cols": allStatusKeys})
	if err != nil {
		return err
	}
	if err := s.awaitResponse(ctx, func() error { return s.ep.Send(ctx, data, nil) }); err != nil {
		return err
	}

	s.mu.Lock()
	known := s.firmwareKnown
	s.mu.Unlock()
	if !known {
		versionData, err := s.wrapSession(envelope.KindStatus, map[string]interface{}{"cols": []string{"hid"}})
		if err == nil {
			// Best-effort: a timeout here shouldn't fail an otherwise
			// successful update_state.
			_ = s.awaitResponse(ctx, func() error { return s.ep.Send(ctx, versionData, nil) })
		}
	}
	return nil
}

// PushStateUpdate sends every dirty property to the device in a single
// cmd request and clears the dirty set on success (spec section 4.5).
func (s *Session) PushStateUpdate(ctx context.Context) error {
	s.reqMu.Lock()
	defer s.reqMu.Unlock()

	s.mu.Lock()
	if len(s.dirty) == 0 {
		s.mu.Unlock()
		return nil
	}
	keys := make([]string, 0, len(s.dirty)+2)
	for k := range s.dirty {
		keys = append(keys, k)
	}
	if _, setTemDirty := s.dirty["SetTem"]; setTemDirty {
		for _, extra := range [...]string{"TemRec", "TemUn"} {
			if _, already := s.dirty[extra]; !already {
				keys = append(keys, extra)
			}
		}
	}
	values := make([]interface{}, len(keys))
	for i, k := range keys {
		values[i] = s.cache[k]
	}
	bound := s.bound
	s.mu.Unlock()

	if !bound {
		if err := s.doBind(ctx, nil, s.cfg.cipherSpec); err != nil {
			return err
		}
	}

	data, err := s.wrapSession(envelope.KindCmd, map[string]interface{}{"opt": keys, "p": values})
	if err != nil {
		return err
	}
	if err := s.awaitResponse(ctx, func() error { return s.ep.Send(ctx, data, nil) }); err != nil {
		return err
	}

	s.mu.Lock()
	for _, k := range keys {
		delete(s.dirty, k)
	}
	s.mu.Unlock()
	return nil
}

func (s *Session) wrapSession(kind envelope.Kind, inner map[string]interface{}) ([]byte, error) {
	s.mu.Lock()
	key := s.sessionKey
	spec := s.cfg.cipherSpec
	mac := s.info.MAC
	s.mu.Unlock()
	if key == nil {
		return nil, ErrNotBound
	}
	c, err := cipher.New(spec, key)
	if err != nil {
		return nil, err
	}
	return envelope.Wrap(kind, mac, inner, false, c)
}

// awaitResponse sends via send, then blocks until the dispatcher signals
// a response, ctx is cancelled, or the session timeout elapses.
func (s *Session) awaitResponse(ctx context.Context, send func() error) error {
	ch := make(chan struct{})
	s.mu.Lock()
	s.pending = ch
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		if s.pending == ch {
			s.pending = nil
		}
		s.mu.Unlock()
	}()

	if err := send(); err != nil {
		if errors.Is(err, transport.ErrSendTimeout) {
			return ErrTimeout
		}
		return err
	}

	timer := time.NewTimer(s.cfg.timeout)
	defer timer.Stop()

	select {
	case <-ch:
		return nil
	case <-timer.C:
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) signalPending() {
	s.mu.Lock()
	ch := s.pending
	s.pending = nil
	s.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}

func (s *Session) handlePacket(pkt *transport.Packet) {
	s.mu.Lock()
	key := s.sessionKey
	spec := s.cfg.cipherSpec
	s.mu.Unlock()

	generic := cipher.NewGeneric(spec)
	var session cipher.Cipher
	if key != nil {
		if c, err := cipher.New(spec, key); err == nil {
			session = c
		}
	}

	kind, inner, err := envelope.Unwrap(pkt.Data, generic, session)
	if err != nil {
		if s.log != nil {
			s.log.Warnf("undecodable packet from %s: %v", pkt.Addr, err)
		}
		return
	}
	s.dispatcher.Dispatch(kind, inner)
}

func (s *Session) handleBindOK(key string) {
	s.mu.Lock()
	s.sessionKey = []byte(key)
	s.bound = true
	s.ready = true
	s.mu.Unlock()
	s.signalPending()
}

func (s *Session) handleData(values map[string]interface{}) {
	s.mu.Lock()
	for k, v := range values {
		s.cache[k] = v
	}
	if hidRaw, ok := values["hid"]; ok {
		if hidStr, ok2 := hidRaw.(string); ok2 {
			s.firmwareID = hidStr
			s.firmwareKnown = true
		}
	}
	if s.firmwareKnown {
		temSen, temSenKnown := toInt(s.cache["TemSen"])
		s.firmwareMajor, s.firmwareV4 = ParseFirmwareMajor(s.firmwareID, temSen, temSenKnown)
	}
	s.mu.Unlock()
	s.signalPending()
}

func (s *Session) handleResult(values map[string]interface{}) {
	s.mu.Lock()
	for k, v := range values {
		s.cache[k] = v
	}
	s.mu.Unlock()
	s.signalPending()
}
