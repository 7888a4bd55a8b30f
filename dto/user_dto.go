package dto

type AddressDTO struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Country string `json:"country"`
}

type CreateUserDTO struct {
	UserName    string      `json:"userName" binding:"required,min=3,max=64"`
	Password    string      `json:"password" binding:"required,min=8"`
	FullName    string      `json:"fullName" binding:"required"`
	Email       string      `json:"email" binding:"omitempty,email"`
	PhoneNumber string      `json:"phoneNumber"`
	Address     *AddressDTO `json:"address"`
	Role        string      `json:"role"` // Employee when empty
	IsActive    *bool       `json:"isActive"`
}

// UpdateUserDTO is used by admins; all fields are optional.
type UpdateUserDTO struct {
	FullName    *string     `json:"fullName"`
	Email       *string     `json:"email" binding:"omitempty,email"`
	PhoneNumber *string     `json:"phoneNumber"`
	Address     *AddressDTO `json:"address"`
	Role        *string     `json:"role"`
	IsActive    *bool       `json:"isActive"`
}

// UpdateMeDTO is the subset a user may change on their own profile.
type UpdateMeDTO struct {
	FullName    *string     `json:"fullName"`
	Email       *string     `json:"email" binding:"omitempty,email"`
	PhoneNumber *string     `json:"phoneNumber"`
	Address     *AddressDTO `json:"address"`
}
