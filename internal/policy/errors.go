package policy

import "errors"

var (
	ErrUnknownRole  = errors.New("unknown role")
	ErrOutOfScope   = errors.New("record is outside your visibility scope")
	ErrNotOwner     = errors.New("only the owner or an admin can modify this record")
	ErrEditLocked   = errors.New("visit plan can no longer be edited")
	ErrAdminOnly    = errors.New("only admins can perform this action")
	ErrStatusChange = errors.New("only admins can change a visit plan's status directly")
)
