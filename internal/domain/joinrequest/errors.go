package joinrequest

import "errors"

var (
	ErrRequestNotFound = errors.New("join request not found")
	ErrRequestMismatch = errors.New("join request does not match family or user")
	ErrUserIDRequired  = errors.New("user id is required")
)
