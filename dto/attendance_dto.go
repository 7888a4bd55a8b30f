package dto

type CheckInDTO struct {
	Note string `json:"note" binding:"max=500"`
}
