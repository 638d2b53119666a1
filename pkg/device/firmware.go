package device

import (
	"regexp"
	"strings"
)

// temperatureOffset is the v3-firmware sensor offset (spec section 4.5).
const temperatureOffset = 40

var (
	versionSuffixRe = regexp.MustCompile(`V(\d+)(?:\.\d+)?\.bin$`)
	jdv1Re          = regexp.MustCompile(`_JDV1\.bin$`)
	mtkV1to3Re      = regexp.MustCompile(`\(MTK\)V[1-3]\.bin$`)
)

// legacy967Suffix is a second, exact-string v4 marker alongside the two
// regex-matched patterns (spec section 4.5).
const legacy967Suffix = "362001000967V2.bin"

// ParseFirmwareMajor extracts the major firmware version and whether the
// device should be treated under v4 temperature semantics, grounded on
// original_source/greeclimate/device.py's hid-suffix matching. temSen and
// temSenKnown describe the device's last reported raw sensor reading;
// pass temSenKnown=false if no status response has been received yet.
//
// A device is v4 if hid matches one of three known suffixes, or if the
// sensor reading is strictly below the v3 offset (40) — but a bare
// TemSen==40 never triggers the coercion on its own (regression covered
// by original_source's test_issue_69).
func ParseFirmwareMajor(hid string, temSen int, temSenKnown bool) (major string, v4 bool) {
	if hid != "" {
		switch {
		case jdv1Re.MatchString(hid):
			v4 = true
		case strings.HasSuffix(hid, legacy967Suffix):
			v4 = true
		case mtkV1to3Re.MatchString(hid):
			v4 = true
		}
		if m := versionSuffixRe.FindStringSubmatch(hid); m != nil {
			major = m[1]
		}
	}

	if !v4 && temSenKnown && temSen < temperatureOffset {
		major = "4"
		v4 = true
	}

	return major, v4
}
