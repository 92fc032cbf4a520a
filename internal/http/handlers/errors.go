// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP
// responses (via the `fail()` helper in this package). Codes give clients a
// stable, machine-readable taxonomy next to the human-readable message.
//
// Business outcomes (wrong password, missing session id, provider failure)
// are not errors at this layer: they are answered with 200 and a
// {success:false, message} or {answer, error} body. Codes below are only
// used for protocol failures and unexpected storage errors.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "bad_request",
//	  "message": "invalid JSON body"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"
)
