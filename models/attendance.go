package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Attendance is one working day of one user; (userId, day) is unique.
type Attendance struct {
	BaseEntity `bson:",inline"`

	UserID   bson.ObjectID `bson:"userId" json:"userId"`
	Day      time.Time     `bson:"day" json:"day"`
	CheckIn  time.Time     `bson:"checkIn" json:"checkIn"`
	CheckOut *time.Time    `bson:"checkOut,omitempty" json:"checkOut,omitempty"`
	Note     string        `bson:"note,omitempty" json:"note,omitempty"`
}

// DayOf truncates t to its UTC calendar day.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
