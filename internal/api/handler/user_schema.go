package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Request / Response types ---

// registerRequest is the body of POST /api/v1/users. Email format is not
// checked; it is stored as given.
type registerRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Fullname string `json:"fullname" validate:"max=128"`
	Email    string `json:"email"    validate:"max=254"`
	Password string `json:"password" validate:"required"`
	IsAdmin  bool   `json:"isAdmin"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Response-only types owned by the transport layer. The password hash has
// no field here, so it can never be serialized.

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"isAdmin"`
}

type userDataResponse struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Fullname     string    `json:"fullname"`
	Email        string    `json:"email"`
	IsAdmin      bool      `json:"isAdmin"`
	SessionToken string    `json:"sessionToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type loginResponse struct {
	UserData userDataResponse `json:"userData"`
}

type listUsersResponse struct {
	Users []userResponse `json:"users"`
}

type currentUserResponse struct {
	User userResponse `json:"user"`
}
