package models

import "time"

// Audit actions recorded by auth and the booking workflows.
const (
	AuditActionLogin              = "LOGIN"
	AuditActionLogout             = "LOGOUT"
	AuditActionCreate             = "CREATE"
	AuditActionUpdate             = "UPDATE"
	AuditActionDelete             = "DELETE"
	AuditActionRequestCreate      = "REQUEST_CREATE"
	AuditActionRequestAutoApprove = "REQUEST_AUTO_APPROVE"
	AuditActionRequestApprove     = "REQUEST_APPROVE"
	AuditActionRequestReject      = "REQUEST_REJECT"
	AuditActionRequestWithdraw    = "REQUEST_WITHDRAW"
	AuditActionRequestVCDecision  = "REQUEST_VC_DECISION"
	AuditActionEntryMaterialize   = "ENTRY_MATERIALIZE_FAILED"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
