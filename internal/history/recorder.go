package history

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/hapbridge/hap-go/pkg/devices"
	"github.com/hapbridge/hap-go/pkg/server"
)

// Measurement is the name of the measurement changes are written to.
const Measurement = "characteristic"

// Recorder writes the changes of an accessory database to a Writer.
type Recorder struct {
	writer Writer
	logger *slog.Logger
	now    func() time.Time
	cancel func()
}

// NewRecorder creates a Recorder that writes to w.
func NewRecorder(w Writer, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recorder{writer: w, logger: logger.With("component", "history"), now: time.Now}
}

// Start records every change of db until Stop is called.
func (r *Recorder) Start(db *server.Database) {
	r.cancel = db.Subscribe(r.Record)
}

// Stop ends recording.
func (r *Recorder) Stop() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// Record writes one change.
func (r *Recorder) Record(c server.Change) {
	p := pointFor(c, r.now())
	if p == nil {
		r.logger.Debug("change not recorded", "aid", c.AID, "characteristic", c.Characteristic)
		return
	}
	r.writer.WritePoint(p)
}

// pointFor converts a change to a point. It returns nil for changes without
// a recordable value.
func pointFor(c server.Change, ts time.Time) *write.Point {
	fields := make(map[string]any, 1)
	switch v := c.Value.(type) {
	case nil:
		return nil
	case bool:
		if v {
			fields["value"] = 1.0
		} else {
			fields["value"] = 0.0
		}
	case int:
		fields["value"] = float64(v)
	case int64:
		fields["value"] = float64(v)
	case uint:
		fields["value"] = float64(v)
	case uint64:
		fields["value"] = float64(v)
	case float32:
		fields["value"] = float64(v)
	case float64:
		fields["value"] = v
	case string:
		fields["text"] = v
	case devices.Payload:
		fields["text"] = v.Value()
	default:
		return nil
	}

	tags := map[string]string{
		"aid":    strconv.Itoa(c.AID),
		"iid":    strconv.Itoa(c.IID),
		"source": c.Source.String(),
	}
	// Empty tag values are not valid line protocol.
	if c.Service != "" {
		tags["service"] = c.Service
	}
	if c.Characteristic != "" {
		tags["characteristic"] = c.Characteristic
	}
	if c.Owner != uuid.Nil {
		tags["owner"] = c.Owner.String()
	}
	return write.NewPoint(Measurement, tags, fields, ts)
}
