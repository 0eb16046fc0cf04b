package log

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// codec holds the CBOR modes of the .hlog format: canonical map order and
// RFC 3339 timestamps with nanoseconds, so identical events encode to
// identical bytes.
type codec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var hlogCodec = mustCodec()

func mustCodec() codec {
	enc, err := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("hlog encoder mode: %v", err))
	}

	dec, err := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("hlog decoder mode: %v", err))
	}

	return codec{enc: enc, dec: dec}
}

// EncodeEvent encodes one event as a CBOR item.
func EncodeEvent(event Event) ([]byte, error) {
	return hlogCodec.enc.Marshal(event)
}

// DecodeEvent decodes one CBOR item into an Event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := hlogCodec.dec.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("decoding event: %w", err)
	}
	return event, nil
}
