package domain

import "time"

// AuditLog is one recorded authentication or admin-management event.
type AuditLog struct {
	ID        string
	AccountID string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}

// Actions recorded by the service. login_failure events carry the sentinel
// account id since the caller is unauthenticated.
const (
	ActionLogin        = "login"
	ActionLoginFailure = "login_failure"
	ActionLogout       = "logout"
	ActionRefresh      = "refresh"
	ActionRegister     = "register"
	ActionCreate       = "create"
	ActionUpdate       = "update"
	ActionDelete       = "delete"
)
