package history

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/carcino/internal/cart"
	"github.com/example/carcino/internal/order"
)

// Details is the structured payload attached to a history item. The concrete
// type always matches the item's Kind.
type Details interface {
	Kind() Kind
}

// DoctorSummary identifies the doctor of a booked appointment.
type DoctorSummary struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Specialty       string          `json:"specialty"`
	Location        string          `json:"location"`
	ConsultationFee decimal.Decimal `json:"consultationFee"`
}

// PatientSummary is the patient information captured by the booking wizard.
type PatientSummary struct {
	Name   string `json:"name"`
	Age    string `json:"age"`
	Gender string `json:"gender"`
	Phone  string `json:"phone"`
	Email  string `json:"email,omitempty"`
}

// AppointmentSummary is the scheduled slot and its cost.
type AppointmentSummary struct {
	Date             string          `json:"date"`
	Time             string          `json:"time"`
	ConsultationType string          `json:"consultationType"`
	Symptoms         string          `json:"symptoms,omitempty"`
	TotalFee         decimal.Decimal `json:"totalFee"`
	PaymentMethod    string          `json:"paymentMethod"`
}

type AppointmentDetails struct {
	Doctor      DoctorSummary      `json:"doctor"`
	Patient     PatientSummary     `json:"patient"`
	Appointment AppointmentSummary `json:"appointment"`
}

func (AppointmentDetails) Kind() Kind { return KindAppointment }

// MedicineDetails records an order that contained medicine products.
type MedicineDetails struct {
	OrderID           string                `json:"orderId"`
	Items             []cart.LineItem       `json:"items"`
	Total             decimal.Decimal       `json:"total"`
	OrderDate         time.Time             `json:"orderDate"`
	PaymentMethod     order.PaymentMethod   `json:"paymentMethod"`
	DeliveryAddress   order.DeliveryAddress `json:"deliveryAddress"`
	EstimatedDelivery time.Time             `json:"estimatedDelivery"`
	PurchaseType      string                `json:"type"`
	Source            string                `json:"source"`
}

func (MedicineDetails) Kind() Kind { return KindMedicine }

// AnalysisDetails keeps the classifier output of an image analysis.
type AnalysisDetails struct {
	Prediction         string             `json:"prediction"`
	Confidence         float64            `json:"confidence"`
	ClassProbabilities map[string]float64 `json:"class_probabilities,omitempty"`
	FileName           string             `json:"fileName,omitempty"`
}

func (AnalysisDetails) Kind() Kind { return KindAnalysis }
