package appointments

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("appointments: not found")
	ErrDuplicateReference = errors.New("appointments: duplicate reference")
)

// StatusPending is the status of a request nobody has confirmed yet.
const StatusPending = "pending"

// Appointment is a booked visit.
type Appointment struct {
	ID         string    `json:"id"`
	Reference  string    `json:"reference"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email,omitempty"`
	Department string    `json:"department"`
	Doctor     string    `json:"doctor,omitempty"`
	Date       time.Time `json:"date"`
	Time       string    `json:"time"`
	Reason     string    `json:"reason,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}
