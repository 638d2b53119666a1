package discovery

import (
	"net"
	"testing"
)

type recordingListener struct {
	found  []DeviceInfo
	update []DeviceInfo
}

func (r *recordingListener) DeviceFound(info DeviceInfo)  { r.found = append(r.found, info) }
func (r *recordingListener) DeviceUpdate(info DeviceInfo) { r.update = append(r.update, info) }

// TestScanAndDeduplicate exercises spec section 8 end-to-end scenario 1:
// three responses, two distinct macs, exactly two device_found events.
func TestScanAndDeduplicate(t *testing.T) {
	s := NewScanner()
	l := &recordingListener{}
	s.AddListener(l)

	addr := &net.UDPAddr{IP: net.ParseIP("10.0.0.5"), Port: 7000}
	s.ingest(NewDeviceInfo(addr.IP, addr.Port, "aabbcc001122", "", "", "", ""))
	s.ingest(NewDeviceInfo(addr.IP, addr.Port, "aabbcc001122", "", "", "", ""))
	s.ingest(NewDeviceInfo(addr.IP, addr.Port, "aabbcc001123", "", "", "", ""))

	known := s.Known()
	if len(known) != 2 {
		t.Fatalf("len(known) = %d, want 2", len(known))
	}
	if len(l.found) != 2 {
		t.Fatalf("len(found) = %d, want 2", len(l.found))
	}
	if len(l.update) != 0 {
		t.Fatalf("len(update) = %d, want 0", len(l.update))
	}
}

// TestAddressUpdate exercises spec section 8 end-to-end scenario 2: a
// known device reappearing at a new ip fires exactly one device_update
// and zero device_found, and the stored record's ip is updated.
func TestAddressUpdate(t *testing.T) {
	s := NewScanner()
	l := &recordingListener{}
	s.AddListener(l)

	s.ingest(NewDeviceInfo(net.ParseIP("1.1.1.1"), 7000, "aa11bb22cc33", "", "", "", ""))
	if len(l.found) != 1 {
		t.Fatalf("len(found) after first ingest = %d, want 1", len(l.found))
	}

	s.ingest(NewDeviceInfo(net.ParseIP("1.1.2.2"), 7000, "aa11bb22cc33", "", "", "", ""))

	known := s.Known()
	if len(known) != 1 {
		t.Fatalf("len(known) = %d, want 1", len(known))
	}
	if !known[0].IP.Equal(net.ParseIP("1.1.2.2")) {
		t.Fatalf("known[0].IP = %v, want 1.1.2.2", known[0].IP)
	}
	if len(l.update) != 1 {
		t.Fatalf("len(update) = %d, want 1", len(l.update))
	}
	if len(l.found) != 1 {
		t.Fatalf("len(found) = %d, want 1 (no new found event)", len(l.found))
	}
}

func TestAddListenerReplaysKnownDevices(t *testing.T) {
	s := NewScanner()
	s.ingest(NewDeviceInfo(net.ParseIP("1.1.1.1"), 7000, "aabbccddeeff", "", "", "", ""))

	l := &recordingListener{}
	s.AddListener(l)
	if len(l.found) != 1 {
		t.Fatalf("len(found) = %d, want 1 (replay of known device)", len(l.found))
	}
}

func TestRemoveListenerIsIdempotent(t *testing.T) {
	s := NewScanner()
	l := &recordingListener{}
	s.AddListener(l)
	s.RemoveListener(l)
	s.RemoveListener(l)

	s.ingest(NewDeviceInfo(net.ParseIP("1.1.1.1"), 7000, "aabbccddeeff", "", "", "", ""))
	if len(l.found) != 0 {
		t.Fatalf("removed listener still received events: %v", l.found)
	}
}

type panickingListener struct{ called bool }

func (p *panickingListener) DeviceFound(DeviceInfo)  { panic("boom") }
func (p *panickingListener) DeviceUpdate(DeviceInfo) {}

func TestListenerPanicDoesNotBlockOthers(t *testing.T) {
	s := NewScanner()
	s.AddListener(&panickingListener{})
	l := &recordingListener{}
	s.AddListener(l)

	s.ingest(NewDeviceInfo(net.ParseIP("1.1.1.1"), 7000, "aabbccddeeff", "", "", "", ""))
	if len(l.found) != 1 {
		t.Fatalf("len(found) = %d, want 1 despite other listener panicking", len(l.found))
	}
}

func TestDeviceInfoFromPacketPrefersMACOverCID(t *testing.T) {
	addr := &net.UDPAddr{IP: net.ParseIP("10.0.0.9"), Port: 7000}
	inner := map[string]interface{}{
		"t":    "dev",
		"cid":  "fallback-id",
		"mac":  "aabbcc001122",
		"name": "Living Room AC",
	}
	info := deviceInfoFromPacket(addr, inner)
	if info.MAC != "aabbcc001122" {
		t.Fatalf("MAC = %q, want aabbcc001122", info.MAC)
	}
	if info.Name != "Living Room AC" {
		t.Fatalf("Name = %q, want Living Room AC", info.Name)
	}
}

func TestDeviceInfoFromPacketFallsBackToCID(t *testing.T) {
	addr := &net.UDPAddr{IP: net.ParseIP("10.0.0.9"), Port: 7000}
	inner := map[string]interface{}{"t": "dev", "cid": "fallback-id", "mac": ""}
	info := deviceInfoFromPacket(addr, inner)
	if info.MAC != "fallback-id" {
		t.Fatalf("MAC = %q, want fallback-id", info.MAC)
	}
}
