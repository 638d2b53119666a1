package device

import "testing"

func TestParseFirmwareMajorJDV1Suffix(t *testing.T) {
	major, v4 := ParseFirmwareMajor("something_JDV1.bin", 0, false)
	if !v4 {
		t.Fatalf("expected v4 for _JDV1.bin suffix")
	}
	_ = major
}

func TestParseFirmwareMajorLegacy967Suffix(t *testing.T) {
	_, v4 := ParseFirmwareMajor("1001362001000967V2.bin", 0, false)
	if !v4 {
		t.Fatalf("expected v4 for 362001000967V2.bin suffix")
	}
}

func TestParseFirmwareMajorMTKSuffix(t *testing.T) {
	for _, hid := range []string{"abc(MTK)V1.bin", "abc(MTK)V2.bin", "abc(MTK)V3.bin"} {
		if _, v4 := ParseFirmwareMajor(hid, 0, false); !v4 {
			t.Fatalf("expected v4 for hid %q", hid)
		}
	}
	if _, v4 := ParseFirmwareMajor("abc(MTK)V4.bin", 50, true); v4 {
		t.Fatalf("(MTK)V4.bin should not match the v1-3 pattern")
	}
}

func TestParseFirmwareMajorExtractsVersionSuffix(t *testing.T) {
	major, _ := ParseFirmwareMajor("xyzV5.bin", 0, false)
	if major != "5" {
		t.Fatalf("expected major version 5, got %q", major)
	}
}

func TestParseFirmwareMajorTemSenBelow40CoercesV4(t *testing.T) {
	_, v4 := ParseFirmwareMajor("unrecognized.bin", 39, true)
	if !v4 {
		t.Fatalf("expected TemSen=39 to coerce v4")
	}
}

// TestParseFirmwareMajorTemSen40DoesNotCoerceV4 is a regression test for
// original_source's test_issue_69: TemSen==40 alone must not trigger the
// v3/v4 coercion, only a strictly-lower reading does.
func TestParseFirmwareMajorTemSen40DoesNotCoerceV4(t *testing.T) {
	_, v4 := ParseFirmwareMajor("unrecognized.bin", 40, true)
	if v4 {
		t.Fatalf("TemSen=40 alone must not coerce v4 (test_issue_69)")
	}
}

func TestParseFirmwareMajorUnknownTemSenDoesNotCoerce(t *testing.T) {
	_, v4 := ParseFirmwareMajor("unrecognized.bin", 0, false)
	if v4 {
		t.Fatalf("temSenKnown=false must not coerce v4")
	}
}
