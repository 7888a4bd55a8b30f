package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type ContractStatus string

const (
	ContractStatusActive     ContractStatus = "ACTIVE"
	ContractStatusTerminated ContractStatus = "TERMINATED"
)

type Contract struct {
	BaseEntity `bson:",inline"`

	UserID    bson.ObjectID  `bson:"userId" json:"userId"`
	Title     string         `bson:"title" json:"title"`
	Salary    float64        `bson:"salary" json:"salary"`
	StartDate time.Time      `bson:"startDate" json:"startDate"`
	EndDate   *time.Time     `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Status    ContractStatus `bson:"status" json:"status"`
}

// ActiveAt reports whether the contract covers t.
func (c *Contract) ActiveAt(t time.Time) bool {
	if c.Status != ContractStatusActive || t.Before(c.StartDate) {
		return false
	}
	return c.EndDate == nil || t.Before(*c.EndDate)
}
