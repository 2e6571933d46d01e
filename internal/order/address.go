// Package order defines the delivery address, pricing and the immutable order
// record produced by a completed checkout.
package order

import (
	"net/mail"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Coordinates is the point picked on the delivery map.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DeliveryAddress is the validated shipping destination of an order.
type DeliveryAddress struct {
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Phone       string       `json:"phone"`
	Address     string       `json:"address"`
	City        string       `json:"city"`
	State       string       `json:"state"`
	Pincode     string       `json:"pincode"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid delivery address: " + strings.Join(parts, "; ")
}

type lengthRule struct {
	field string
	min   int
	label string
	value func(DeliveryAddress) string
}

var lengthRules = []lengthRule{
	{"name", 2, "Name", func(a DeliveryAddress) string { return a.Name }},
	{"phone", 10, "Phone number", func(a DeliveryAddress) string { return a.Phone }},
	{"address", 10, "Address", func(a DeliveryAddress) string { return a.Address }},
	{"city", 2, "City", func(a DeliveryAddress) string { return a.City }},
	{"state", 2, "State", func(a DeliveryAddress) string { return a.State }},
	{"pincode", 6, "Pincode", func(a DeliveryAddress) string { return a.Pincode }},
}

// Normalized returns a copy with surrounding whitespace trimmed.
func (a DeliveryAddress) Normalized() DeliveryAddress {
	a.Name = strings.TrimSpace(a.Name)
	a.Email = strings.TrimSpace(a.Email)
	a.Phone = strings.TrimSpace(a.Phone)
	a.Address = strings.TrimSpace(a.Address)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.Pincode = strings.TrimSpace(a.Pincode)
	if a.Coordinates != nil {
		c := *a.Coordinates
		a.Coordinates = &c
	}
	return a
}

// Validate checks the minimum lengths, the email format and the presence of
// coordinates. It returns a *ValidationError or nil.
func (a DeliveryAddress) Validate() error {
	a = a.Normalized()
	fields := make(map[string]string)

	for _, rule := range lengthRules {
		if utf8.RuneCountInString(rule.value(a)) < rule.min {
			fields[rule.field] = rule.label + " must be at least " + strconv.Itoa(rule.min) + " characters"
		}
	}

	if !validEmail(a.Email) {
		fields["email"] = "Invalid email address"
	}

	if a.Coordinates == nil {
		fields["coordinates"] = "Please select your delivery location on the map"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validEmail(s string) bool {
	if s == "" {
		return false
	}
	parsed, err := mail.ParseAddress(s)
	if err != nil || parsed.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}
