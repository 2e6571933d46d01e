// Package booking implements the three step appointment booking wizard.
package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/carcino/internal/history"
)

// PlatformFee is added to every consultation fee.
var PlatformFee = decimal.NewFromInt(50)

// DateLayout is the accepted appointment date format.
const DateLayout = "2006-01-02"

// Step of the wizard.
type Step int

const (
	StepPatientInfo Step = iota + 1
	StepSchedule
	StepPayment
	StepBooked
)

func (s Step) String() string {
	switch s {
	case StepPatientInfo:
		return "patient_info"
	case StepSchedule:
		return "schedule"
	case StepPayment:
		return "payment"
	case StepBooked:
		return "booked"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

var timeSlots = []string{
	"09:00 AM", "09:30 AM", "10:00 AM", "10:30 AM", "11:00 AM", "11:30 AM",
	"02:00 PM", "02:30 PM", "03:00 PM", "03:30 PM", "04:00 PM", "04:30 PM",
	"05:00 PM", "05:30 PM",
}

// TimeSlots returns the bookable times of a day.
func TimeSlots() []string {
	return append([]string(nil), timeSlots...)
}

var (
	ErrAlreadyBooked = errors.New("appointment already booked")
	ErrNotReady      = errors.New("complete the previous steps first")
)

// Form is everything the patient enters across the wizard.
type Form struct {
	PatientName          string `json:"patientName"`
	Age                  string `json:"age"`
	Gender               string `json:"gender"`
	Phone                string `json:"phone"`
	Email                string `json:"email"`
	AppointmentDate      string `json:"appointmentDate"`
	AppointmentTime      string `json:"appointmentTime"`
	ConsultationType     string `json:"consultationType"`
	Symptoms             string `json:"symptoms"`
	PreviousConsultation string `json:"previousConsultation"`
	PaymentMethod        string `json:"paymentMethod"`
}

func (f Form) withDefaults() Form {
	if f.ConsultationType == "" {
		f.ConsultationType = "in-person"
	}
	if f.PreviousConsultation == "" {
		f.PreviousConsultation = "no"
	}
	if f.PaymentMethod == "" {
		f.PaymentMethod = "online"
	}
	return f
}

// StepError lists the fields that keep the wizard on Step.
type StepError struct {
	Step   Step
	Fields map[string]string
}

func (e *StepError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("%s step incomplete: %s", e.Step, strings.Join(keys, ", "))
}

// Wizard walks one booking through patient info, schedule and payment.
type Wizard struct {
	doctor history.DoctorSummary
	form   Form
	step   Step
	now    func() time.Time
}

// NewWizard starts a booking with doctor at the patient info step.
func NewWizard(doctor history.DoctorSummary) *Wizard {
	return &Wizard{doctor: doctor, step: StepPatientInfo, now: time.Now}
}

func (w *Wizard) Step() Step { return w.step }

func (w *Wizard) Form() Form { return w.form }

// Update replaces the form values. It has no effect once booked.
func (w *Wizard) Update(form Form) {
	if w.step == StepBooked {
		return
	}
	w.form = form.withDefaults()
}

// TotalFee is the consultation fee plus the platform fee.
func (w *Wizard) TotalFee() decimal.Decimal {
	return w.doctor.ConsultationFee.Add(PlatformFee)
}

// Next validates the current step and advances, stopping at the payment step.
func (w *Wizard) Next() error {
	switch w.step {
	case StepPatientInfo, StepSchedule:
		if err := w.validate(w.step); err != nil {
			return err
		}
		w.step++
		return nil
	case StepPayment:
		return nil
	}
	return ErrAlreadyBooked
}

// Previous steps back, never below the first step.
func (w *Wizard) Previous() {
	if w.step > StepPatientInfo && w.step != StepBooked {
		w.step--
	}
}

// Confirm books the appointment and records it in hist.
func (w *Wizard) Confirm(hist *history.Log) (history.Item, error) {
	switch {
	case w.step == StepBooked:
		return history.Item{}, ErrAlreadyBooked
	case w.step != StepPayment:
		return history.Item{}, ErrNotReady
	}
	for _, step := range []Step{StepPatientInfo, StepSchedule, StepPayment} {
		if err := w.validate(step); err != nil {
			return history.Item{}, err
		}
	}

	item, err := hist.Append(history.KindAppointment, w.Summary(), w.details())
	if err != nil {
		return history.Item{}, err
	}
	w.step = StepBooked
	return item, nil
}

// Summary is the human readable history line of the booking.
func (w *Wizard) Summary() string {
	symptoms := strings.TrimSpace(w.form.Symptoms)
	if symptoms == "" {
		symptoms = "General consultation"
	}
	return fmt.Sprintf("Appointment booked with Dr. %s (%s) on %s at %s. Type: %s. Symptoms: %s. Total Fee: ₹%s",
		w.doctor.Name,
		w.doctor.Specialty,
		w.form.AppointmentDate,
		w.form.AppointmentTime,
		w.form.ConsultationType,
		symptoms,
		w.TotalFee().String(),
	)
}

func (w *Wizard) details() history.AppointmentDetails {
	return history.AppointmentDetails{
		Doctor: w.doctor,
		Patient: history.PatientSummary{
			Name:   strings.TrimSpace(w.form.PatientName),
			Age:    strings.TrimSpace(w.form.Age),
			Gender: w.form.Gender,
			Phone:  strings.TrimSpace(w.form.Phone),
			Email:  strings.TrimSpace(w.form.Email),
		},
		Appointment: history.AppointmentSummary{
			Date:             w.form.AppointmentDate,
			Time:             w.form.AppointmentTime,
			ConsultationType: w.form.ConsultationType,
			Symptoms:         strings.TrimSpace(w.form.Symptoms),
			TotalFee:         w.TotalFee(),
			PaymentMethod:    w.form.PaymentMethod,
		},
	}
}

func (w *Wizard) validate(step Step) error {
	f := w.form
	fields := make(map[string]string)

	switch step {
	case StepPatientInfo:
		if strings.TrimSpace(f.PatientName) == "" {
			fields["patientName"] = "Patient name is required"
		}
		if strings.TrimSpace(f.Age) == "" {
			fields["age"] = "Age is required"
		}
		switch f.Gender {
		case "male", "female", "other":
		default:
			fields["gender"] = "Gender must be male, female or other"
		}
		if strings.TrimSpace(f.Phone) == "" {
			fields["phone"] = "Phone number is required"
		}
	case StepSchedule:
		if date, err := time.Parse(DateLayout, f.AppointmentDate); err != nil {
			fields["appointmentDate"] = "Appointment date must be YYYY-MM-DD"
		} else if date.Before(today(w.now())) {
			fields["appointmentDate"] = "Appointment date is in the past"
		}
		if !validSlot(f.AppointmentTime) {
			fields["appointmentTime"] = "Please select a time slot for your appointment"
		}
		switch f.ConsultationType {
		case "in-person", "video":
		default:
			fields["consultationType"] = "Consultation type must be in-person or video"
		}
	case StepPayment:
		switch f.PaymentMethod {
		case "online", "clinic":
		default:
			fields["paymentMethod"] = "Payment method must be online or clinic"
		}
	}

	if len(fields) > 0 {
		return &StepError{Step: step, Fields: fields}
	}
	return nil
}

func validSlot(slot string) bool {
	for _, s := range timeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

func today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Book runs the whole wizard over a complete form.
func Book(doctor history.DoctorSummary, form Form, hist *history.Log) (history.Item, error) {
	w := NewWizard(doctor)
	w.Update(form)
	for w.Step() < StepPayment {
		if err := w.Next(); err != nil {
			return history.Item{}, err
		}
	}
	return w.Confirm(hist)
}
