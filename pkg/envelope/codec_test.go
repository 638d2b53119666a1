package envelope

import (
	"errors"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/climatelan/greelink/pkg/cipher"
)

func TestWrapBareScanHasNoPack(t *testing.T) {
	data, err := Wrap(KindScan, "", nil, true, nil)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if env.T != "scan" {
		t.Fatalf("t = %q, want scan", env.T)
	}
	if env.Pack != "" {
		t.Fatalf("pack = %q, want empty", env.Pack)
	}
	if env.I != 1 {
		t.Fatalf("i = %d, want 1", env.I)
	}
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	c := cipher.NewGeneric(cipher.V1)

	data, err := Wrap(KindBind, "aabbcc001122", map[string]interface{}{"uid": 0}, true, c)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}

	kind, inner, err := Unwrap(data, c, nil)
	if err != nil {
		t.Fatalf("Unwrap: %v", err)
	}
	if kind != KindBind {
		t.Fatalf("kind = %q, want bind", kind)
	}
	if inner["mac"] != "aabbcc001122" {
		t.Fatalf("mac = %v, want aabbcc001122", inner["mac"])
	}
}

func TestIFlagAcceptsStringOrNumber(t *testing.T) {
	cases := [][]byte{
		[]byte(`{"cid":"app","i":1,"t":"pack","uid":0,"tcid":"m"}`),
		[]byte(`{"cid":"app","i":"1","t":"pack","uid":0,"tcid":"m"}`),
	}
	for _, raw := range cases {
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("Unmarshal(%s): %v", raw, err)
		}
		if !env.I.Generic() {
			t.Fatalf("Unmarshal(%s): I.Generic() = false, want true", raw)
		}
	}
}

func TestUnwrapSelectsCipherByIFlag(t *testing.T) {
	generic := cipher.NewGeneric(cipher.V1)
	sessionKey := []byte("0123456789abcdef")
	session, err := cipher.New(cipher.V1, sessionKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	genData, err := Wrap(KindBind, "mac", map[string]interface{}{"uid": 0}, true, generic)
	if err != nil {
		t.Fatalf("Wrap(generic): %v", err)
	}
	kind, _, err := Unwrap(genData, generic, session)
	if err != nil {
		t.Fatalf("Unwrap(generic): %v", err)
	}
	if kind != KindBind {
		t.Fatalf("kind = %q, want bind", kind)
	}

	sessData, err := Wrap(KindStatus, "mac", map[string]interface{}{"cols": []string{"Pow"}}, false, session)
	if err != nil {
		t.Fatalf("Wrap(session): %v", err)
	}
	kind, _, err = Unwrap(sessData, generic, session)
	if err != nil {
		t.Fatalf("Unwrap(session): %v", err)
	}
	if kind != KindStatus {
		t.Fatalf("kind = %q, want status", kind)
	}
}

func TestUnwrapEmptyPackOnPackKindReturnsErrMissingPack(t *testing.T) {
	raw := []byte(`{"cid":"app","i":1,"t":"pack","uid":0,"tcid":"m"}`)
	generic := cipher.NewGeneric(cipher.V1)
	_, _, err := Unwrap(raw, generic, nil)
	if !errors.Is(err, ErrMissingPack) {
		t.Fatalf("got %v, want ErrMissingPack", err)
	}
}

func TestZipColsValuesMismatchedLength(t *testing.T) {
	_, err := ZipColsValues([]interface{}{"Pow", "Mod"}, []interface{}{1})
	if !errors.Is(err, ErrColsDatMismatch) {
		t.Fatalf("got %v, want ErrColsDatMismatch", err)
	}
}

func TestZipColsValues(t *testing.T) {
	got, err := ZipColsValues([]interface{}{"Pow", "Mod"}, []interface{}{float64(1), float64(2)})
	if err != nil {
		t.Fatalf("ZipColsValues: %v", err)
	}
	if got["Pow"] != float64(1) || got["Mod"] != float64(2) {
		t.Fatalf("got %v", got)
	}
}
