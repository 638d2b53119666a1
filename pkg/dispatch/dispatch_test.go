package dispatch

import (
	"testing"

	"github.com/climatelan/greelink/pkg/envelope"
)

func TestDispatchBindOK(t *testing.T) {
	d := New(nil)
	var got string
	d.OnBindOK(func(key string) { got = key })

	d.Dispatch(envelope.KindBindOK, map[string]interface{}{"key": "abcdefgh12345678"})
	if got != "abcdefgh12345678" {
		t.Fatalf("got %q, want abcdefgh12345678", got)
	}
}

func TestDispatchDatZipsColsAndDat(t *testing.T) {
	d := New(nil)
	var got map[string]interface{}
	d.OnData(func(values map[string]interface{}) { got = values })

	d.Dispatch(envelope.KindDat, map[string]interface{}{
		"cols": []interface{}{"Pow", "Mod"},
		"dat":  []interface{}{float64(1), float64(2)},
	})
	if got["Pow"] != float64(1) || got["Mod"] != float64(2) {
		t.Fatalf("got %v", got)
	}
}

func TestDispatchResultPrefersValOverP(t *testing.T) {
	d := New(nil)
	var got map[string]interface{}
	d.OnResult(func(values map[string]interface{}) { got = values })

	d.Dispatch(envelope.KindRes, map[string]interface{}{
		"opt": []interface{}{"Pow"},
		"val": []interface{}{float64(1)},
		"p":   []interface{}{float64(9)},
	})
	if got["Pow"] != float64(1) {
		t.Fatalf("got %v, want val to win over p", got)
	}
}

func TestDispatchResultFallsBackToP(t *testing.T) {
	d := New(nil)
	var got map[string]interface{}
	d.OnResult(func(values map[string]interface{}) { got = values })

	d.Dispatch(envelope.KindRes, map[string]interface{}{
		"opt": []interface{}{"Pow", "Mod"},
		"p":   []interface{}{float64(1), float64(1)},
	})
	if got["Pow"] != float64(1) || got["Mod"] != float64(1) {
		t.Fatalf("got %v", got)
	}
}

func TestDispatchUnknownKindDoesNotPanic(t *testing.T) {
	d := New(nil)
	d.Dispatch(envelope.Kind("mumble"), map[string]interface{}{})
}

func TestDispatchSwallowsCallbackPanic(t *testing.T) {
	d := New(nil)
	called := false
	d.OnBindOK(func(string) { panic("boom") })
	d.OnBindOK(func(string) { called = true })

	d.Dispatch(envelope.KindBindOK, map[string]interface{}{"key": "k"})
	if !called {
		t.Fatal("second callback did not run after first panicked")
	}
}

func TestDispatchMismatchedColsDatDoesNotInvokeHandler(t *testing.T) {
	d := New(nil)
	called := false
	d.OnData(func(map[string]interface{}) { called = true })

	d.Dispatch(envelope.KindDat, map[string]interface{}{
		"cols": []interface{}{"Pow", "Mod"},
		"dat":  []interface{}{float64(1)},
	})
	if called {
		t.Fatal("handler ran despite cols/dat length mismatch")
	}
}
