package dto

import "time"

type CreateContractDTO struct {
	UserID    string     `json:"userId" binding:"required"`
	Title     string     `json:"title" binding:"required"`
	Salary    float64    `json:"salary" binding:"gte=0"`
	StartDate time.Time  `json:"startDate" binding:"required"`
	EndDate   *time.Time `json:"endDate"`
}

type UpdateContractDTO struct {
	Title   *string    `json:"title"`
	Salary  *float64   `json:"salary" binding:"omitempty,gte=0"`
	EndDate *time.Time `json:"endDate"`
}

// TerminateContractDTO defaults At to now.
type TerminateContractDTO struct {
	At *time.Time `json:"at"`
}
