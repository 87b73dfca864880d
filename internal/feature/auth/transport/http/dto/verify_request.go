package dto

// VerifyReq represents the request body for the /auth/verify endpoint.
// Email travels with the link for display purposes; the token alone
// identifies its owner.
type VerifyReq struct {
	Email string `json:"email" binding:"required,email"`
	Token string `json:"token" binding:"required"`
}
