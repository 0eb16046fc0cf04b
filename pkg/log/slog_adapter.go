package log

import (
	"context"
	"fmt"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter writing to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("direction", event.Direction.String()),
		slog.String("source", event.Source.String()),
		slog.String("category", event.Category.String()),
	}
	if event.AID != 0 {
		attrs = append(attrs, slog.Int("aid", event.AID))
	}
	if event.Owner != "" {
		attrs = append(attrs, slog.String("owner", event.Owner))
	}

	switch {
	case event.Characteristic != nil:
		c := event.Characteristic
		attrs = append(attrs,
			slog.Int("iid", c.IID),
			slog.String("characteristic", c.Name),
		)
		if c.Service != "" {
			attrs = append(attrs, slog.String("service", c.Service))
		}
		attrs = append(attrs,
			slog.String("raw", fmt.Sprint(c.Raw)),
			slog.String("value", fmt.Sprint(c.Value)),
		)
		if c.Status != nil {
			attrs = append(attrs, slog.String("status", c.Status.String()))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
		if event.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", *event.Error.Code))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "hap", attrs...)
}
