package family

import "errors"

var (
	ErrFamilyNotFound   = errors.New("family not found")
	ErrMemberNotFound   = errors.New("member not found")
	ErrAlreadyInFamily  = errors.New("already in family")
	ErrNotInFamily      = errors.New("not in a family")
	ErrNameRequired     = errors.New("name is required")
	ErrUnauthorized     = errors.New("admin role required")
	ErrCannotExpelOwner = errors.New("cannot expel owner")
	ErrOwnerCannotLeave = errors.New("owner cannot leave while other members remain")
)
