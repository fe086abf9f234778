// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CategoryHint is the coarse ticket type supplied by the sales API.
type CategoryHint string

// Category hints.
const (
	HintSingle         CategoryHint = "single"
	HintDouble         CategoryHint = "double"
	HintRelay          CategoryHint = "relay"
	HintCorporateRelay CategoryHint = "corporate_relay"
	HintSpectator      CategoryHint = "spectator"
	HintExtra          CategoryHint = "extra"
)

// ParseHint normalizes a raw hint value. Blank or unknown values are rejected.
func ParseHint(s string) (CategoryHint, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch CategoryHint(v) {
	case HintSingle, HintDouble, HintRelay, HintCorporateRelay, HintSpectator, HintExtra:
		return CategoryHint(v), nil
	case "doubles":
		return HintDouble, nil
	case "corporate relay", "corporate-relay":
		return HintCorporateRelay, nil
	}
	if v == "" {
		return "", fmt.Errorf("category hint: %w", ErrMissingField)
	}
	return "", fmt.Errorf("%q: %w", s, ErrInvalidHint)
}

// EventDay is the competition day a ticket participates on.
type EventDay string

// Event days. DayAll is an aggregate key, never a ticket value.
const (
	DayThursday EventDay = "THURSDAY"
	DayFriday   EventDay = "FRIDAY"
	DaySaturday EventDay = "SATURDAY"
	DaySunday   EventDay = "SUNDAY"
	DayNone     EventDay = "NONE"
	DayAll      EventDay = "ALL"
)

var dayOrder = map[EventDay]int{
	DayThursday: 1,
	DayFriday:   2,
	DaySaturday: 3,
	DaySunday:   4,
	DayNone:     5,
	DayAll:      6,
}

// Order returns the sort position of the day (Thursday first, ALL last).
func (d EventDay) Order() int {
	if o, ok := dayOrder[d]; ok {
		return o
	}
	return len(dayOrder) + 1
}

// ParseDay accepts full names and three-letter abbreviations in any case.
// A blank value is NONE.
func ParseDay(s string) (EventDay, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	switch v {
	case "":
		return DayNone, nil
	case "THU", "THUR", "THURS", string(DayThursday):
		return DayThursday, nil
	case "FRI", string(DayFriday):
		return DayFriday, nil
	case "SAT", string(DaySaturday):
		return DaySaturday, nil
	case "SUN", string(DaySunday):
		return DaySunday, nil
	case string(DayNone):
		return DayNone, nil
	case string(DayAll):
		return DayAll, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrInvalidDay)
}

// Gender is the standardized participant gender.
type Gender string

// Genders. GenderUnknown is the zero value.
const (
	GenderUnknown Gender = ""
	GenderMale    Gender = "MALE"
	GenderFemale  Gender = "FEMALE"
)

// ParseGender standardizes free-form gender input. Only the first word is
// considered so bilingual values like "Female 女性" resolve correctly.
func ParseGender(s string) Gender {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return GenderUnknown
	}
	switch strings.ToLower(fields[0]) {
	case "male", "men", "man", "m":
		return GenderMale
	case "female", "woman", "women", "f":
		return GenderFemale
	}
	return GenderUnknown
}

// RawTicket is one seat as sold. It is never mutated by the engine.
type RawTicket struct {
	TicketID      string       `json:"ticket_id"`
	TransactionID string       `json:"transaction_id"`
	RawName       string       `json:"raw_name"`
	CategoryHint  CategoryHint `json:"category_hint"`
	EventDay      EventDay     `json:"event_day"`
	Age           *int         `json:"age,omitempty"`
	Gender        Gender       `json:"gender,omitempty"`
}

// Check reports structural failures that make the ticket unusable.
func (t RawTicket) Check() error {
	_, err := t.Normalize()
	return err
}

// Normalize returns the ticket with canonical ids, hint, day and gender. It
// fails on the same structural problems Check reports. ALL is an aggregate
// key and is rejected as a ticket day.
func (t RawTicket) Normalize() (RawTicket, error) {
	out := t
	out.TicketID = strings.TrimSpace(t.TicketID)
	out.TransactionID = strings.TrimSpace(t.TransactionID)
	if out.TicketID == "" {
		return t, fmt.Errorf("ticket_id: %w", ErrMissingField)
	}
	h, err := ParseHint(string(t.CategoryHint))
	if err != nil {
		return t, fmt.Errorf("ticket %s: %w", out.TicketID, err)
	}
	d, err := ParseDay(string(t.EventDay))
	if err != nil {
		return t, fmt.Errorf("ticket %s: %w", out.TicketID, err)
	}
	if d == DayAll {
		return t, fmt.Errorf("ticket %s: %q: %w", out.TicketID, t.EventDay, ErrInvalidDay)
	}
	out.CategoryHint = h
	out.EventDay = d
	out.Gender = ParseGender(string(t.Gender))
	return out, nil
}

// rawTicketJSON is the lenient wire shape used by the ingestion collaborator.
type rawTicketJSON struct {
	TicketID      string `json:"ticket_id"`
	TransactionID string `json:"transaction_id"`
	RawName       string `json:"raw_name"`
	CategoryHint  string `json:"category_hint"`
	EventDay      string `json:"event_day"`
	Age           *int   `json:"age"`
	Gender        string `json:"gender"`
}

// UnmarshalJSON normalizes hint, day and gender while decoding. Values that
// cannot be normalized are kept verbatim so Check can name the ticket.
func (t *RawTicket) UnmarshalJSON(b []byte) error {
	var w rawTicketJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*t = RawTicket{
		TicketID:      strings.TrimSpace(w.TicketID),
		TransactionID: strings.TrimSpace(w.TransactionID),
		RawName:       w.RawName,
		CategoryHint:  CategoryHint(w.CategoryHint),
		EventDay:      EventDay(w.EventDay),
		Age:           w.Age,
		Gender:        ParseGender(w.Gender),
	}
	if h, err := ParseHint(w.CategoryHint); err == nil {
		t.CategoryHint = h
	}
	if d, err := ParseDay(w.EventDay); err == nil {
		t.EventDay = d
	}
	return nil
}

// IntPtr is a helper for optional ages.
func IntPtr(v int) *int { return &v }
