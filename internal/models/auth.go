package models

// LoginRequest defines the structure for login requests
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyOTPRequest exchanges an emailed passcode for a session
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

// RegisterRequest defines the structure for registration requests.
// It is bound from a multipart form; the visiting card arrives as a separate file part.
type RegisterRequest struct {
	Name     string  `form:"name" json:"name" validate:"required,min=2,max=100"`
	Email    string  `form:"email" json:"email" validate:"required,email"`
	Password string  `form:"password" json:"password" validate:"required,min=8,max=72"`
	Phone    string  `form:"phone" json:"phone" validate:"required,min=7,max=20"`
	Address  Address `json:"address" validate:"required"`
}

// CreateUserRequest is used by admins to create accounts directly
type CreateUserRequest struct {
	Name       string  `json:"name" validate:"required,min=2,max=100"`
	Email      string  `json:"email" validate:"required,email"`
	Password   string  `json:"password" validate:"required,min=8,max=72"`
	Phone      string  `json:"phone" validate:"omitempty,max=20"`
	Address    Address `json:"address" validate:"required"`
	IsApproved bool    `json:"isApproved"`
	IsAdmin    bool    `json:"isAdmin"`
}

// Upload is a file received from a client
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}
