package scheduling

import (
	"fmt"
	"time"

	"github.com/eclinicgh/telehealth-platform/internal/directory"
)

// Status enumerates the appointment lifecycle states.
type Status string

const (
	StatusPending   Status = "pending"
	StatusUpcoming  Status = "upcoming"
	StatusPast      Status = "past"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status releases the slot. Pending and upcoming
// appointments occupy their slot; past and cancelled ones do not.
func (s Status) Terminal() bool {
	return s == StatusPast || s == StatusCancelled
}

const (
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04"
	dateTimeLayout = dateLayout + " " + timeLayout
)

// Appointment is a booked consultation between one patient and one provider.
// Patient and provider are snapshots captured at booking time; date and time
// are immutable after creation, only status changes.
type Appointment struct {
	ID          string             `dynamodbav:"id" json:"id"`
	PatientUID  string             `dynamodbav:"patientUid" json:"-"`
	ProviderUID string             `dynamodbav:"providerUid" json:"-"`
	Patient     directory.Snapshot `dynamodbav:"patient" json:"patient"`
	Provider    directory.Snapshot `dynamodbav:"provider" json:"provider"`
	Date        string             `dynamodbav:"date" json:"date"`
	Time        string             `dynamodbav:"time" json:"time"`
	Reason      string             `dynamodbav:"reason" json:"reason"`
	Status      Status             `dynamodbav:"status" json:"status"`
	CreatedAt   string             `dynamodbav:"createdAt" json:"createdAt"`
}

// StartsAt parses the appointment's venue-local date and time. Labels are
// stored without timezone; comparisons happen in the same naive frame.
func (a *Appointment) StartsAt() (time.Time, error) {
	return time.ParseInLocation(dateTimeLayout, a.Date+" "+a.Time, time.Local)
}

// EffectiveStatus derives the read-time status: an upcoming appointment whose
// start has elapsed reads as past. The stored document is not mutated; there
// is no background sweep.
func (a *Appointment) EffectiveStatus(now time.Time) Status {
	if a.Status != StatusUpcoming {
		return a.Status
	}
	start, err := a.StartsAt()
	if err != nil {
		return a.Status
	}
	if start.Before(now) {
		return StatusPast
	}
	return StatusUpcoming
}

// SlotKey identifies the shared resource a booking claims: one provider, one
// date, one time label.
func SlotKey(providerUID, date, timeLabel string) string {
	return fmt.Sprintf("%s#%s#%s", providerUID, date, timeLabel)
}
