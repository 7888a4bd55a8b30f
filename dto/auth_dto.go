package dto

type LoginDTO struct {
	UserName string `json:"userName" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshDTO may be omitted when the refresh token travels in the cookie.
type RefreshDTO struct {
	RefreshToken string `json:"refreshToken"`
}
