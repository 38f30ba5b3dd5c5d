package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionRegister       = "REGISTER"
	AuditActionLogin          = "LOGIN"
	AuditActionUserUpdate     = "USER_UPDATE"
	AuditActionUserDelete     = "USER_DELETE"
	AuditActionPasswordChange = "PASSWORD_CHANGE"
	AuditActionGroupCreate    = "GROUP_CREATE"
	AuditActionGroupUpdate    = "GROUP_UPDATE"
	AuditActionGroupDelete    = "GROUP_DELETE"
	AuditActionMemberAdd      = "GROUP_MEMBER_ADD"
	AuditActionMemberRemove   = "GROUP_MEMBER_REMOVE"
	AuditActionCategoryCreate = "CATEGORY_CREATE"
	AuditActionCategoryUpdate = "CATEGORY_UPDATE"
	AuditActionCategoryDelete = "CATEGORY_DELETE"
	AuditActionWordCreate     = "WORD_CREATE"
	AuditActionWordUpdate     = "WORD_UPDATE"
	AuditActionWordDelete     = "WORD_DELETE"
	AuditActionWordImport     = "WORD_IMPORT"
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

// RequestMeta carries client details recorded alongside audit entries.
type RequestMeta struct {
	IP        string
	UserAgent string
}
