package models

import "time"

// Reservation lifecycle states.
const (
	StatusApproved = "approved"
	StatusFinished = "finished"
	StatusExpired  = "expired"
)

// Reservation is a time-boxed booking of one room for an inclusive period range on a single date.
type Reservation struct {
	ID          string    `bson:"id" json:"id"`
	UserID      string    `bson:"userId" json:"userId"`
	UserName    string    `bson:"userName" json:"userName"`
	Major       string    `bson:"major,omitempty" json:"major,omitempty"`
	People      int       `bson:"people,omitempty" json:"people,omitempty"`
	Purpose     string    `bson:"purpose,omitempty" json:"purpose,omitempty"`
	BuildingID  string    `bson:"buildingId" json:"buildingId"`
	RoomID      string    `bson:"roomId" json:"roomId"`
	Day         string    `bson:"day" json:"day"`   // weekday label, e.g. "Mon"
	Date        string    `bson:"date" json:"date"` // "2006-01-02"
	PeriodStart int       `bson:"periodStart" json:"periodStart"`
	PeriodEnd   int       `bson:"periodEnd" json:"periodEnd"`
	Status      string    `bson:"status" json:"status"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// ReservationCandidate is the request payload for a new booking.
type ReservationCandidate struct {
	UserID      string `json:"userId"`
	UserName    string `json:"userName"`
	Major       string `json:"major"`
	People      int    `json:"people"`
	Purpose     string `json:"purpose"`
	BuildingID  string `json:"buildingId"`
	RoomID      string `json:"roomId"`
	Day         string `json:"day"`
	Date        string `json:"date"`
	PeriodStart *int   `json:"periodStart"`
	PeriodEnd   *int   `json:"periodEnd"`
}

// ReservationResult is what callers of RequestReservation receive.
type ReservationResult struct {
	Success     bool              `json:"success"`
	Reservation *Reservation      `json:"reservation,omitempty"`
	Reason      string            `json:"reason,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}

// SweepResult reports the outcome of a lifecycle pass.
type SweepResult struct {
	Transitioned int `json:"transitioned"`
	Finished     int `json:"finished"`
	Expired      int `json:"expired"`
	Skipped      int `json:"skipped"`
}
