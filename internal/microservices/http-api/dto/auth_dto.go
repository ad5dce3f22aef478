package dto

import "yamdb/internal/microservices/http-api/models"

// SignupRequest for POST /v1/auth/signup/
type SignupRequest struct {
	Username string `json:"username" binding:"required,max=150,username"`
	Email    string `json:"email" binding:"required,max=254,email"`
}

type SignupResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func SignupResponseFromModel(u *models.User) SignupResponse {
	return SignupResponse{Username: u.Username, Email: u.Email}
}

// TokenRequest for POST /v1/auth/token/
type TokenRequest struct {
	Username         string `json:"username" binding:"required"`
	ConfirmationCode string `json:"confirmation_code" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}
