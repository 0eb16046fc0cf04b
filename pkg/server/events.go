package server

import (
	"github.com/google/uuid"

	"github.com/hapbridge/hap-go/pkg/devices"
	"github.com/hapbridge/hap-go/pkg/log"
)

// Change describes one characteristic whose value changed.
//
// For changes caused by HomeKit (Source is log.SourceHomeKit) Value is the
// new expected value, which is what the device should be told. For device
// updates Value is the new actual value.
type Change struct {
	AID            int
	IID            int
	Owner          uuid.UUID
	Service        string
	Characteristic string
	Source         log.Source
	Value          any

	// Key is the stable characteristic key, usable with UpdateByKey.
	Key string

	// Property is the device property bound to the characteristic, if any.
	Property devices.Property
}

// Subscribe registers fn for every Change. The returned function removes it.
// fn runs synchronously after the accessory lock has been released.
func (d *Database) Subscribe(fn func(Change)) (cancel func()) {
	d.listenersMu.Lock()
	id := d.nextListener
	d.nextListener++
	d.listeners[id] = fn
	d.listenersMu.Unlock()

	return func() {
		d.listenersMu.Lock()
		delete(d.listeners, id)
		d.listenersMu.Unlock()
	}
}

func (d *Database) publish(changes []Change) {
	if len(changes) == 0 {
		return
	}

	d.listenersMu.RLock()
	listeners := make([]func(Change), 0, len(d.listeners))
	for _, fn := range d.listeners {
		listeners = append(listeners, fn)
	}
	d.listenersMu.RUnlock()

	for _, c := range changes {
		for _, fn := range listeners {
			fn(c)
		}
	}
}
