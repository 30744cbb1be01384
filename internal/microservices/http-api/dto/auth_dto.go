package dto

// Data Transfer Objects for authentication requests and responses

// SignUpRequest: payload for POST /v1/auth/signup/
type SignUpRequest struct {
	Username string `json:"username" binding:"required,max=150,username,notme"`
	Email    string `json:"email" binding:"required,max=254,email"`
}

// SignUpResponse echoes the registered pair; the code goes out by mail only
type SignUpResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TokenRequest: payload for POST /v1/auth/token/
type TokenRequest struct {
	Username         string `json:"username" binding:"required,max=150"`
	ConfirmationCode string `json:"confirmation_code" binding:"required"`
}

// TokenResponse carries the signed access token
type TokenResponse struct {
	Token string `json:"token"`
}
