package connection

import "errors"

var (
	ErrAlreadyExists = errors.New("connection already exists")
	ErrNotFound      = errors.New("connection not found")
	ErrNoAdmin       = errors.New("no admin connected")
)

// Role classifies an observer connection. Displays receive device-control
// commands, the admin receives player telemetry, everyone receives snapshots.
type Role string

const (
	RoleListener Role = "listener"
	RoleDisplay  Role = "display"
)
