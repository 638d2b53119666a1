// Package dispatch routes decrypted inner packets to registered callbacks
// by kind, per spec section 4.6: bindok adopts a session key, dat and res
// deliver zipped key/value maps, anything else is logged and ignored.
package dispatch

import (
	"github.com/pion/logging"

	"github.com/climatelan/greelink/pkg/envelope"
)

// BindOKHandler is invoked when a bindok packet is dispatched, with the
// session key it carried.
type BindOKHandler func(key string)

// ValuesHandler is invoked with a zipped key/value map: cols/dat for a dat
// packet, opt/val (or opt/p) for a res packet.
type ValuesHandler func(values map[string]interface{})

// Dispatcher routes dispatched packets to the handlers registered for
// their kind. A session's own state-update hook is registered the same
// way as any externally supplied callback; there is no privileged slot.
type Dispatcher struct {
	bindOK []BindOKHandler
	data   []ValuesHandler
	result []ValuesHandler
	log    logging.LeveledLogger
}

// New builds a Dispatcher. loggerFactory may be nil to disable logging.
func New(loggerFactory logging.LoggerFactory) *Dispatcher {
	d := &Dispatcher{}
	if loggerFactory != nil {
		d.log = loggerFactory.NewLogger("dispatch")
	}
	return d
}

// OnBindOK registers fn to run when a bindok packet arrives.
func (d *Dispatcher) OnBindOK(fn BindOKHandler) { d.bindOK = append(d.bindOK, fn) }

// OnData registers fn to run when a dat packet arrives.
func (d *Dispatcher) OnData(fn ValuesHandler) { d.data = append(d.data, fn) }

// OnResult registers fn to run when a res packet arrives.
func (d *Dispatcher) OnResult(fn ValuesHandler) { d.result = append(d.result, fn) }

// Dispatch routes one decrypted inner packet by its kind. Malformed dat/res
// payloads (cols/dat length mismatch) are logged and swallowed rather than
// propagated, matching the "unknown t is logged, not fatal" recovery
// policy in spec section 7 for response-shape problems discovered here.
func (d *Dispatcher) Dispatch(kind envelope.Kind, inner map[string]interface{}) {
	switch kind {
	case envelope.KindBindOK:
		key, _ := inner["key"].(string)
		d.invokeBindOK(key)

	case envelope.KindDat:
		cols := envelope.SliceField(inner, "cols")
		dat := envelope.SliceField(inner, "dat")
		values, err := envelope.ZipColsValues(cols, dat)
		if err != nil {
			d.warnf("dat packet: %v", err)
			return
		}
		d.invokeValues(d.data, values)

	case envelope.KindRes:
		opt := envelope.SliceField(inner, "opt")
		values := envelope.SliceField(inner, "val")
		if values == nil {
			// Readers MUST accept either val or p (spec section 6, design
			// note 9b); some firmware omits val and only echoes p.
			values = envelope.SliceField(inner, "p")
		}
		zipped, err := envelope.ZipColsValues(opt, values)
		if err != nil {
			d.warnf("res packet: %v", err)
			return
		}
		d.invokeValues(d.result, zipped)

	default:
		d.warnf("unknown inner packet kind %q", kind)
	}
}

func (d *Dispatcher) invokeBindOK(key string) {
	for _, fn := range d.bindOK {
		d.safeCall(func() { fn(key) })
	}
}

func (d *Dispatcher) invokeValues(handlers []ValuesHandler, values map[string]interface{}) {
	for _, fn := range handlers {
		d.safeCall(func() { fn(values) })
	}
}

// safeCall recovers a panicking callback so it can't abort dispatch of the
// remaining handlers (spec section 4.6: "callback exceptions are caught
// and logged; they never abort dispatch of remaining callbacks").
func (d *Dispatcher) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.warnf("callback panic: %v", r)
		}
	}()
	fn()
}

func (d *Dispatcher) warnf(format string, args ...interface{}) {
	if d.log != nil {
		d.log.Warnf(format, args...)
	}
}
