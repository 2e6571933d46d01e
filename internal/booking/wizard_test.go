package booking

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/carcino/internal/history"
)

var meera = history.DoctorSummary{
	ID:              "1",
	Name:            "Meera Iyer",
	Specialty:       "Dermatologist",
	Location:        "Apollo Hospital, Chennai",
	ConsultationFee: decimal.NewFromInt(1200),
}

func tomorrow() string {
	return time.Now().AddDate(0, 0, 1).Format(DateLayout)
}

func completeForm() Form {
	return Form{
		PatientName:     "Kavya Nair",
		Age:             "34",
		Gender:          "female",
		Phone:           "9988776655",
		AppointmentDate: tomorrow(),
		AppointmentTime: "10:30 AM",
	}
}

func TestTimeSlots(t *testing.T) {
	slots := TimeSlots()

	require.Len(t, slots, 14)
	assert.Equal(t, "09:00 AM", slots[0])
	assert.Equal(t, "11:30 AM", slots[5])
	assert.Equal(t, "02:00 PM", slots[6])
	assert.Equal(t, "05:30 PM", slots[13])
}

func TestWizard_NextValidatesPatientInfo(t *testing.T) {
	w := NewWizard(meera)
	w.Update(Form{PatientName: "Kavya"})

	err := w.Next()

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepPatientInfo, stepErr.Step)
	assert.Contains(t, stepErr.Fields, "age")
	assert.Contains(t, stepErr.Fields, "gender")
	assert.Contains(t, stepErr.Fields, "phone")
	assert.Equal(t, StepPatientInfo, w.Step())
}

func TestWizard_ScheduleRequiresKnownSlot(t *testing.T) {
	w := NewWizard(meera)
	form := completeForm()
	form.AppointmentTime = "01:00 PM"
	w.Update(form)
	require.NoError(t, w.Next())

	err := w.Next()

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepSchedule, stepErr.Step)
	assert.Contains(t, stepErr.Fields, "appointmentTime")
}

func TestWizard_PastDateRejected(t *testing.T) {
	w := NewWizard(meera)
	form := completeForm()
	form.AppointmentDate = "2020-01-01"
	w.Update(form)
	require.NoError(t, w.Next())

	assert.Error(t, w.Next())
	assert.Equal(t, StepSchedule, w.Step())
}

func TestWizard_PreviousNeverBelowFirstStep(t *testing.T) {
	w := NewWizard(meera)
	w.Update(completeForm())

	w.Previous()
	assert.Equal(t, StepPatientInfo, w.Step())

	require.NoError(t, w.Next())
	require.NoError(t, w.Next())
	assert.Equal(t, StepPayment, w.Step())
	require.NoError(t, w.Next())
	assert.Equal(t, StepPayment, w.Step())

	w.Previous()
	assert.Equal(t, StepSchedule, w.Step())
}

func TestWizard_ConfirmBeforePaymentStep(t *testing.T) {
	w := NewWizard(meera)
	w.Update(completeForm())

	_, err := w.Confirm(history.NewLog(nil, nil))

	assert.ErrorIs(t, err, ErrNotReady)
}

func TestBook_AppendsAppointmentHistory(t *testing.T) {
	hist := history.NewLog(nil, nil)
	form := completeForm()

	item, err := Book(meera, form, hist)
	require.NoError(t, err)

	assert.Equal(t, history.KindAppointment, item.Kind)
	assert.Equal(t,
		"Appointment booked with Dr. Meera Iyer (Dermatologist) on "+form.AppointmentDate+
			" at 10:30 AM. Type: in-person. Symptoms: General consultation. Total Fee: ₹1250",
		item.Data)

	details, ok := item.Details.(history.AppointmentDetails)
	require.True(t, ok)
	assert.Equal(t, "1250", details.Appointment.TotalFee.String())
	assert.Equal(t, "online", details.Appointment.PaymentMethod)
	assert.Equal(t, "Kavya Nair", details.Patient.Name)
	assert.Equal(t, 1, hist.Len())
}

func TestBook_WithSymptomsAndVideo(t *testing.T) {
	form := completeForm()
	form.ConsultationType = "video"
	form.Symptoms = "Itchy rash on forearm"

	item, err := Book(meera, form, history.NewLog(nil, nil))

	require.NoError(t, err)
	assert.Contains(t, item.Data, "Type: video. Symptoms: Itchy rash on forearm.")
}

func TestWizard_ConfirmTwice(t *testing.T) {
	hist := history.NewLog(nil, nil)
	w := NewWizard(meera)
	w.Update(completeForm())
	require.NoError(t, w.Next())
	require.NoError(t, w.Next())

	_, err := w.Confirm(hist)
	require.NoError(t, err)
	_, err = w.Confirm(hist)

	assert.ErrorIs(t, err, ErrAlreadyBooked)
	assert.Equal(t, 1, hist.Len())
	assert.Equal(t, StepBooked, w.Step())
}
