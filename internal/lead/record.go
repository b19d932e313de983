package lead

import (
	"context"
	"time"

	"ibt_connect/internal/session"
)

// Placeholder stands in for any optional field the visitor never filled.
const Placeholder = "-"

// Record is an immutable, completed lead. It is constructed only at
// commit time; nothing mutates it afterwards.
type Record struct {
	Timestamp time.Time
	Name      string
	Phone     string
	Email     string
	Location  string
}

// NewRecord builds a Record from the collected draft, substituting the
// placeholder for empty optional fields.
func NewRecord(now time.Time, d session.Draft) Record {
	return Record{
		Timestamp: now.UTC(),
		Name:      orPlaceholder(d.Name),
		Phone:     orPlaceholder(d.Phone),
		Email:     orPlaceholder(d.Email),
		Location:  orPlaceholder(d.Location),
	}
}

// Row renders the record as the five ordered persistence fields.
func (r Record) Row() []string {
	return []string{
		r.Timestamp.UTC().Format(time.RFC3339),
		r.Name,
		r.Phone,
		r.Email,
		r.Location,
	}
}

func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

// Sink receives one completed lead per successful commit. Delivery is
// best-effort; the caller decides what a failure means for the visitor.
type Sink interface {
	Save(ctx context.Context, rec Record) error
}
