// Package history is the append-only medical history log of a session.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind is the category of a history item.
type Kind string

const (
	KindAppointment Kind = "Appointment"
	KindMedicine    Kind = "Medicine"
	KindAnalysis    Kind = "Analysis"
)

var (
	ErrUnknownKind  = errors.New("unknown history type")
	ErrKindMismatch = errors.New("details do not match history type")
)

// ParseKind accepts the three history kinds by their exact names.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindAppointment, KindMedicine, KindAnalysis:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Item is one entry of the log.
type Item struct {
	ID      string
	Kind    Kind
	Data    string
	Details Details
	Date    time.Time
}

type itemJSON struct {
	ID      string          `json:"id"`
	Kind    Kind            `json:"type"`
	Data    string          `json:"data"`
	Details json.RawMessage `json:"details,omitempty"`
	Date    time.Time       `json:"date"`
}

func (it Item) MarshalJSON() ([]byte, error) {
	out := itemJSON{ID: it.ID, Kind: it.Kind, Data: it.Data, Date: it.Date}
	if it.Details != nil {
		raw, err := json.Marshal(it.Details)
		if err != nil {
			return nil, err
		}
		out.Details = raw
	}
	return json.Marshal(out)
}

func (it *Item) UnmarshalJSON(data []byte) error {
	var in itemJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	kind, err := ParseKind(string(in.Kind))
	if err != nil {
		return err
	}

	var details Details
	if len(in.Details) > 0 && string(in.Details) != "null" {
		details, err = decodeDetails(kind, in.Details)
		if err != nil {
			return err
		}
	}

	*it = Item{ID: in.ID, Kind: kind, Data: in.Data, Details: details, Date: in.Date}
	return nil
}

func decodeDetails(kind Kind, raw json.RawMessage) (Details, error) {
	switch kind {
	case KindAppointment:
		var d AppointmentDetails
		err := json.Unmarshal(raw, &d)
		return d, err
	case KindMedicine:
		var d MedicineDetails
		err := json.Unmarshal(raw, &d)
		return d, err
	case KindAnalysis:
		var d AnalysisDetails
		err := json.Unmarshal(raw, &d)
		return d, err
	}
	return nil, ErrUnknownKind
}

// Log is the ordered list of history items. Items are never edited; Clear is
// the only removal.
type Log struct {
	items   []Item
	persist func([]Item)
	now     func() time.Time
	newID   func() string
}

// NewLog wraps previously persisted items. persist, when non-nil, receives the
// full list after every change.
func NewLog(items []Item, persist func([]Item)) *Log {
	return &Log{
		items:   append([]Item(nil), items...),
		persist: persist,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Append adds an item of kind with a fresh id and timestamp.
func (l *Log) Append(kind Kind, data string, details Details) (Item, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return Item{}, err
	}
	if details != nil && details.Kind() != kind {
		return Item{}, fmt.Errorf("%w: %s details on %s item", ErrKindMismatch, details.Kind(), kind)
	}

	item := Item{
		ID:      l.newID(),
		Kind:    kind,
		Data:    data,
		Details: details,
		Date:    l.now().UTC(),
	}
	l.items = append(l.items, item)
	l.save()
	return item, nil
}

// Items returns every item, oldest first.
func (l *Log) Items() []Item {
	return append([]Item(nil), l.items...)
}

// ByKind returns the items of kind, oldest first.
func (l *Log) ByKind(kind Kind) []Item {
	var out []Item
	for _, item := range l.items {
		if item.Kind == kind {
			out = append(out, item)
		}
	}
	return out
}

// HasOrder reports whether a medicine entry for orderID already exists.
func (l *Log) HasOrder(orderID string) bool {
	for _, item := range l.items {
		if d, ok := item.Details.(MedicineDetails); ok && d.OrderID == orderID {
			return true
		}
	}
	return false
}

func (l *Log) Len() int {
	return len(l.items)
}

// Clear removes every item.
func (l *Log) Clear() {
	l.items = nil
	l.save()
}

func (l *Log) save() {
	if l.persist != nil {
		l.persist(l.Items())
	}
}
