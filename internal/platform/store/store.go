// Package store names the persistence contract every backend satisfies.
package store

import (
	"holidayhub/internal/domain/audit"
	"holidayhub/internal/domain/leave"
	"holidayhub/internal/domain/settings"
	"holidayhub/internal/domain/users"
)

type Backend interface {
	leave.Store
	users.Store
	audit.Store
	settings.Store
}
