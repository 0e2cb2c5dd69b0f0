package relay

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)
