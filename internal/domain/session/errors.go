package session

import "errors"

var (
	ErrSessionConflict = errors.New("session active on another device")
	ErrDeviceRequired  = errors.New("device id is required")
	ErrSessionNotFound = errors.New("session not found")
	ErrUnreachable     = errors.New("identity provider unreachable")
)
