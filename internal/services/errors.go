// Package services defines the business logic for accounts, chat sessions
// and the conversation orchestrator. This file centralizes service-level
// error values and the user-facing messages they map to.
//
// Validation failures are reported to HTTP callers as {success:false,
// message}; storage failures are returned as plain errors and translated to
// 500 responses by the handler layer.
package services

import "errors"

// Account errors.
var (
	// ErrMissingFields is returned when registration is missing a username,
	// email or password.
	ErrMissingFields = errors.New("all fields are required")

	// ErrMissingCredentials is returned when login lacks email or password.
	ErrMissingCredentials = errors.New("email and password are required")

	// ErrUserExists indicates a unique violation on username or email.
	ErrUserExists = errors.New("username or email already exists")

	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password so callers cannot tell them apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Session errors.
var (
	// ErrMissingSession is returned when an operation needs a known user and
	// a session id but one of them is absent.
	ErrMissingSession = errors.New("missing email or session id")
)

// Messages returned to clients. They are part of the public contract and
// must not change.
const (
	MsgMissingFields      = "All fields are required."
	MsgUserExists         = "Username or email already exists."
	MsgRegistered         = "Registration successful."
	MsgMissingCredentials = "Please enter both email and password."
	MsgLoggedIn           = "Login successful."
	MsgInvalidCredentials = "UserName/Password incorrect."
	MsgMissingSession     = "Missing email or session ID."
	MsgEmptyQuestion      = "Please enter your question."
)

// Message returns the client message for a service error, or "" when err
// has no user-facing text.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrMissingFields):
		return MsgMissingFields
	case errors.Is(err, ErrUserExists):
		return MsgUserExists
	case errors.Is(err, ErrMissingCredentials):
		return MsgMissingCredentials
	case errors.Is(err, ErrInvalidCredentials):
		return MsgInvalidCredentials
	case errors.Is(err, ErrMissingSession):
		return MsgMissingSession
	default:
		return ""
	}
}
