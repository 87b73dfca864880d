package dto

// TokenRes carries a freshly issued session token.
type TokenRes struct {
	Token string `json:"token"`
}

// ErrorRes carries a stable machine-readable error code.
type ErrorRes struct {
	Error string `json:"error"`
}

// MeRes describes the authenticated account.
type MeRes struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}
