// Package envelope implements the outer JSON frame shared by every message
// in the protocol, and the inner packet kinds it carries once decrypted.
package envelope

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Kind identifies an inner packet's purpose via its "t" field.
type Kind string

// Request kinds sent by the client.
const (
	KindScan   Kind = "scan"
	KindBind   Kind = "bind"
	KindStatus Kind = "status"
	KindCmd    Kind = "cmd"
)

// Response kinds produced by devices.
const (
	KindDev    Kind = "dev"
	KindBindOK Kind = "bindok"
	KindDat    Kind = "dat"
	KindRes    Kind = "res"
)

// IFlag is the outer "i" value: 1 for generic-key traffic (scan/bind), 0
// for session-key traffic. The source's "i" sentinel is inconsistently 1 vs "1" across device
// revisions; IFlag's UnmarshalJSON accepts either (design note 9a).
type IFlag int

// UnmarshalJSON accepts both a JSON number and a JSON string for "i".
func (f *IFlag) UnmarshalJSON(data []byte) error {
	var asInt int
	if err := json.Unmarshal(data, &asInt); err == nil {
		*f = IFlag(asInt)
		return nil
	}
	var asStr string
	if err := json.Unmarshal(data, &asStr); err != nil {
		return fmt.Errorf("envelope: i field is neither number nor string: %w", err)
	}
	var parsed int
	if _, err := fmt.Sscanf(asStr, "%d", &parsed); err != nil {
		return fmt.Errorf("envelope: i field %q is not numeric: %w", asStr, err)
	}
	*f = IFlag(parsed)
	return nil
}

// MarshalJSON always emits "i" as a number, per design note 9a's
// recommendation to send integer 1 and accept either on read.
func (f IFlag) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(f))
}

// Generic reports whether this envelope's pack is encrypted under the
// generic key (i == 1) rather than the device's session key.
func (f IFlag) Generic() bool { return f == 1 }

// Envelope is the outer JSON frame every message is wrapped in.
type Envelope struct {
	CID  string `json:"cid"`
	I    IFlag  `json:"i"`
	T    string `json:"t"`
	UID  int    `json:"uid"`
	TCID string `json:"tcid"`
	Pack string `json:"pack,omitempty"`
	Tag  string `json:"tag,omitempty"`
}
