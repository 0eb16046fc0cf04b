package server

import (
	"fmt"
	"reflect"
	"time"

	"github.com/hapbridge/hap-go/pkg/log"
	"github.com/hapbridge/hap-go/pkg/model"
	"github.com/hapbridge/hap-go/pkg/wire"
)

// ReadCharacteristics answers a GET /characteristics request. Every id gets
// a result; failures carry a status instead of a value.
func (d *Database) ReadCharacteristics(ids []wire.CharacteristicID) wire.CharacteristicResponse {
	resp := wire.CharacteristicResponse{Characteristics: make([]wire.CharacteristicResult, 0, len(ids))}

	for _, id := range ids {
		result := wire.CharacteristicResult{AID: id.AID, IID: id.IID}

		e, c, err := d.lookup(id)
		switch {
		case err != nil:
			result.Status = wire.StatusResourceDoesNotExist
		case !c.Permissions().CanRead():
			result.Status = wire.StatusWriteOnly
		default:
			e.mu.Lock()
			result.Value = c.ReadValue()
			result.HasValue = true
			e.mu.Unlock()
		}

		d.logCharacteristic(log.DirectionOut, log.SourceHomeKit, log.CategoryRead, e, c, id, nil, result.Value, result.Status)
		resp.Characteristics = append(resp.Characteristics, result)
	}

	return resp
}

// ReadCharacteristic reads one characteristic.
func (d *Database) ReadCharacteristic(id wire.CharacteristicID) (any, error) {
	e, c, err := d.lookup(id)
	if err != nil {
		return nil, err
	}
	if !c.Permissions().CanRead() {
		return nil, fmt.Errorf("%w: %s (aid %d iid %d)", ErrNotReadable, c.Name(), id.AID, id.IID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return c.ReadValue(), nil
}

// WriteCharacteristics answers a PUT /characteristics request from session.
//
// An entry with "ev" enables or disables events for session. An entry with a
// value is converted into the device domain, stored as the expected value and
// recalculated within its service. The response carries one result per entry;
// entries with "r" set also carry the value read back.
func (d *Database) WriteCharacteristics(session string, req wire.CharacteristicWriteRequest) wire.CharacteristicResponse {
	resp := wire.CharacteristicResponse{Characteristics: make([]wire.CharacteristicResult, 0, len(req.Characteristics))}
	var changes []Change

	for _, w := range req.Characteristics {
		id := wire.CharacteristicID{AID: w.AID, IID: w.IID}
		result := wire.CharacteristicResult{AID: w.AID, IID: w.IID}

		e, c, err := d.lookup(id)
		if err != nil {
			result.Status = wire.StatusResourceDoesNotExist
			d.logCharacteristic(log.DirectionIn, log.SourceHomeKit, log.CategoryWrite, nil, nil, id, w.Value, nil, result.Status)
			resp.Characteristics = append(resp.Characteristics, result)
			continue
		}

		if w.Events != nil {
			result.Status = d.setEvents(session, e, c, id, *w.Events)
		}

		if result.Status == wire.StatusSuccess && (w.Value != nil || w.Events == nil) {
			var written []Change
			written, result.Status = d.write(session, e, c, id, w.Value)
			changes = append(changes, written...)
		}

		if w.Response && result.Status == wire.StatusSuccess && c.Permissions().CanRead() {
			e.mu.Lock()
			result.Value = c.ReadValue()
			result.HasValue = true
			e.mu.Unlock()
		}

		resp.Characteristics = append(resp.Characteristics, result)
	}

	d.publish(changes)
	return resp
}

// WriteCharacteristic applies one value written by session.
func (d *Database) WriteCharacteristic(session string, id wire.CharacteristicID, value any) error {
	resp := d.WriteCharacteristics(session, wire.CharacteristicWriteRequest{
		Characteristics: []wire.CharacteristicWrite{{AID: id.AID, IID: id.IID, Value: value}},
	})
	return statusError(id, resp.Characteristics[0].Status)
}

func (d *Database) setEvents(session string, e *entry, c *model.Characteristic, id wire.CharacteristicID, enable bool) wire.Status {
	if !c.Permissions().CanNotify() {
		return wire.StatusNotificationNotSupported
	}

	if !enable {
		// Disabling events that were never enabled is not an error.
		_ = d.subs.Unsubscribe(session, id)
		return wire.StatusSuccess
	}

	var current any
	if c.Permissions().CanRead() {
		e.mu.Lock()
		current = c.ReadValue()
		e.mu.Unlock()
	}
	if err := d.subs.Subscribe(session, id, current); err != nil {
		if d.config.Logger != nil {
			d.config.Logger.Warn("event subscription rejected", "session", session, "aid", id.AID, "iid", id.IID, "error", err)
		}
		return wire.StatusOutOfResource
	}
	return wire.StatusSuccess
}

func (d *Database) write(session string, e *entry, c *model.Characteristic, id wire.CharacteristicID, raw any) ([]Change, wire.Status) {
	if !c.Permissions().CanWrite() {
		d.logCharacteristic(log.DirectionIn, log.SourceHomeKit, log.CategoryWrite, e, c, id, raw, nil, wire.StatusReadOnly)
		return nil, wire.StatusReadOnly
	}

	var converted any
	if raw != nil {
		converted = c.ConvertWrite(raw)
	}
	if converted == nil {
		d.logCharacteristic(log.DirectionIn, log.SourceHomeKit, log.CategoryWrite, e, c, id, raw, nil, wire.StatusInvalidValue)
		return nil, wire.StatusInvalidValue
	}

	e.mu.Lock()
	s := c.Service()
	before := snapshot(s)
	c.SetExpectedValue(converted)
	if s != nil {
		s.RecalculateValues(c, false)
	}
	changes, events := d.diff(e.acc, s, before, log.SourceHomeKit)
	// A repeated write still reaches the device unless recalculation
	// consumed it.
	if c.ExpectedValue() != nil && !containsIID(changes, c.IID()) {
		changes = append([]Change{d.change(e.acc, s, c, log.SourceHomeKit, c.ExpectedValue())}, changes...)
	}
	e.mu.Unlock()

	d.logCharacteristic(log.DirectionIn, log.SourceHomeKit, log.CategoryWrite, e, c, id, raw, converted, wire.StatusSuccess)
	d.notify(events, session)

	return changes, wire.StatusSuccess
}

// UpdateFromDevice stores a value reported by the device as the actual value
// of id, recalculates the service and notifies subscribed sessions.
func (d *Database) UpdateFromDevice(id wire.CharacteristicID, value any) error {
	e, c, err := d.lookup(id)
	if err != nil {
		return err
	}
	d.update(e, c, value)
	return nil
}

// UpdateCharacteristic is UpdateFromDevice addressed by service and
// characteristic name, which also reaches virtual characteristics. The first
// matching service and characteristic win.
func (d *Database) UpdateCharacteristic(aid int, service, characteristic string, value any) error {
	e, err := d.entry(aid)
	if err != nil {
		return err
	}

	e.mu.Lock()
	var c *model.Characteristic
	if s := e.acc.FindService(service); s != nil {
		c = s.FindCharacteristic(characteristic)
	}
	e.mu.Unlock()

	if c == nil {
		return fmt.Errorf("%w: %s.%s on aid %d", ErrUnknownCharacteristic, service, characteristic, aid)
	}
	d.update(e, c, value)
	return nil
}

// UpdateByKey is UpdateFromDevice addressed by the stable characteristic key
// (model.Characteristic.Key). Unlike UpdateCharacteristic it tells apart
// services of the same type, and reaches virtual characteristics.
func (d *Database) UpdateByKey(aid int, key string, value any) error {
	e, err := d.entry(aid)
	if err != nil {
		return err
	}

	e.mu.Lock()
	var c *model.Characteristic
	for _, candidate := range e.acc.Characteristics() {
		if candidate.Key() == key {
			c = candidate
			break
		}
	}
	e.mu.Unlock()

	if c == nil {
		return fmt.Errorf("%w: key %s on aid %d", ErrUnknownCharacteristic, key, aid)
	}
	d.update(e, c, value)
	return nil
}

func (d *Database) update(e *entry, c *model.Characteristic, value any) {
	e.mu.Lock()
	id := wire.CharacteristicID{AID: e.acc.AID(), IID: c.IID()}
	s := c.Service()
	before := snapshot(s)
	c.SetValue(value)
	c.SetValid(value != nil)
	if s != nil {
		s.RecalculateValues(c, true)
	}
	changes, events := d.diff(e.acc, s, before, log.SourceDevice)
	e.mu.Unlock()

	d.logCharacteristic(log.DirectionIn, log.SourceDevice, log.CategoryChange, e, c, id, nil, value, wire.StatusSuccess)
	d.notify(events, "")
	d.publish(changes)
}

func (d *Database) lookup(id wire.CharacteristicID) (*entry, *model.Characteristic, error) {
	e, err := d.entry(id.AID)
	if err != nil {
		return nil, nil, err
	}

	e.mu.Lock()
	_, c := e.acc.FindByIID(id.IID)
	e.mu.Unlock()

	if c == nil {
		return nil, nil, fmt.Errorf("%w: aid %d iid %d", ErrUnknownCharacteristic, id.AID, id.IID)
	}
	return e, c, nil
}

type values struct {
	actual, expected any
}

// snapshot records the values of every characteristic of s.
func snapshot(s *model.Service) map[*model.Characteristic]values {
	if s == nil {
		return nil
	}
	out := make(map[*model.Characteristic]values, len(s.Characteristics()))
	for _, c := range s.Characteristics() {
		out[c] = values{actual: c.Value(), expected: c.ExpectedValue()}
	}
	return out
}

// event is a value to send to event subscribers.
type event struct {
	id    wire.CharacteristicID
	value any
}

// diff compares s against before. HomeKit writes report expected value
// changes; device updates report actual value changes. Characteristics whose
// actual value changed and that support events are returned as events.
// Caller holds the accessory lock.
func (d *Database) diff(acc *model.Accessory, s *model.Service, before map[*model.Characteristic]values, source log.Source) ([]Change, []event) {
	if s == nil {
		return nil, nil
	}

	var (
		changes []Change
		events  []event
	)
	for _, c := range s.Characteristics() {
		old := before[c]
		if !reflect.DeepEqual(old.actual, c.Value()) {
			if source == log.SourceDevice {
				changes = append(changes, d.change(acc, s, c, source, c.Value()))
			}
			if c.IID() != 0 && c.Permissions().CanNotify() {
				events = append(events, event{
					id:    wire.CharacteristicID{AID: acc.AID(), IID: c.IID()},
					value: c.ReadValue(),
				})
			}
		}
		if source == log.SourceHomeKit && c.ExpectedValue() != nil && !reflect.DeepEqual(old.expected, c.ExpectedValue()) {
			changes = append(changes, d.change(acc, s, c, source, c.ExpectedValue()))
		}
	}
	return changes, events
}

func (d *Database) change(acc *model.Accessory, s *model.Service, c *model.Characteristic, source log.Source, value any) Change {
	ch := Change{
		AID:            acc.AID(),
		IID:            c.IID(),
		Owner:          acc.Owner(),
		Characteristic: c.Name(),
		Source:         source,
		Value:          value,
		Key:            c.Key(),
		Property:       c.Property(),
	}
	if s != nil {
		ch.Service = s.Name()
	}
	return ch
}

// notify records value changes with the subscription manager. origin is the
// session that caused them.
func (d *Database) notify(events []event, origin string) {
	for _, ev := range events {
		d.subs.NotifyChange(ev.id, ev.value, origin)
	}
}

func containsIID(changes []Change, iid int) bool {
	for _, c := range changes {
		if c.IID == iid {
			return true
		}
	}
	return false
}

// statusError maps a HAP status to the matching sentinel error.
func statusError(id wire.CharacteristicID, status wire.Status) error {
	switch status {
	case wire.StatusSuccess:
		return nil
	case wire.StatusResourceDoesNotExist:
		return fmt.Errorf("%w: aid %d iid %d", ErrUnknownCharacteristic, id.AID, id.IID)
	case wire.StatusReadOnly:
		return fmt.Errorf("%w: aid %d iid %d", ErrNotWritable, id.AID, id.IID)
	case wire.StatusWriteOnly:
		return fmt.Errorf("%w: aid %d iid %d", ErrNotReadable, id.AID, id.IID)
	case wire.StatusInvalidValue:
		return fmt.Errorf("%w: aid %d iid %d", ErrInvalidValue, id.AID, id.IID)
	default:
		return fmt.Errorf("aid %d iid %d: status %s", id.AID, id.IID, status)
	}
}

func (d *Database) logCharacteristic(
	direction log.Direction,
	source log.Source,
	category log.Category,
	e *entry,
	c *model.Characteristic,
	id wire.CharacteristicID,
	raw, value any,
	status wire.Status,
) {
	logger := d.config.ProtocolLogger
	if logger == nil {
		return
	}

	ev := log.Event{
		Timestamp: time.Now(),
		Direction: direction,
		Source:    source,
		Category:  category,
		AID:       id.AID,
	}
	if e != nil {
		ev.Owner = e.acc.Owner().String()
	}

	if c == nil {
		code := int(status)
		ev.Category = log.CategoryError
		ev.Error = &log.ErrorEventData{
			Message: ErrUnknownCharacteristic.Error(),
			Code:    &code,
			Context: fmt.Sprintf("%s iid %d", category, id.IID),
		}
		logger.Log(ev)
		return
	}

	ev.Characteristic = &log.CharacteristicEvent{
		IID:    id.IID,
		Name:   c.Name(),
		Raw:    raw,
		Value:  value,
		Status: &status,
	}
	if s := c.Service(); s != nil {
		ev.Characteristic.Service = s.Name()
	}
	logger.Log(ev)
}
