package dto

import "github.com/noah-isme/student-directory-api/internal/models"

// RegisterRequest is the self-service sign-up payload. Username is the
// university ID; when omitted the email becomes the login name.
type RegisterRequest struct {
	Username        string  `json:"username" validate:"omitempty,max=20"`
	Password        string  `json:"password" validate:"required"`
	Email           string  `json:"email" validate:"omitempty,email"`
	FirstName       string  `json:"first_name" validate:"required,max=30"`
	LastName        string  `json:"last_name" validate:"required,max=30"`
	Phone           *string `json:"phone" validate:"omitempty,max=15"`
	Bio             *string `json:"bio"`
	ProfilePic      *string `json:"profile_pic" validate:"omitempty,url"`
	Batch           string  `json:"batch" validate:"required,max=100"`
	Program         *string `json:"program" validate:"omitempty,max=100"`
	Country         *string `json:"country" validate:"omitempty,max=100"`
	CurrentPosition *string `json:"current_position" validate:"omitempty,max=200"`
	CurrentCompany  *string `json:"current_company" validate:"omitempty,max=200"`
	IsCR            bool    `json:"is_cr"`
}

// RegisteredProfile is the profile block of a registration response.
type RegisteredProfile struct {
	UniID      string  `json:"uni_id"`
	Batch      string  `json:"batch"`
	Country    *string `json:"country"`
	IsCR       bool    `json:"is_cr"`
	IsVerified bool    `json:"is_verified"`
	ProfilePic *string `json:"profile_pic"`
}

// RegisterResponse is returned with 201 after a successful sign-up.
type RegisterResponse struct {
	Message        string             `json:"message"`
	User           models.UserSummary `json:"user"`
	StudentProfile RegisteredProfile  `json:"student_profile"`
}
