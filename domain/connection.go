package domain

// ConnectionID identifies one live connection. A user may hold several.
type ConnectionID string

// Binding ties a live connection to a room. It is process-local and never persisted.
type Binding struct {
	ConnectionID ConnectionID
	UserID       string
	DisplayName  string
	RoomID       RoomID
}

// Identity is what the identity collaborator hands back after verifying credentials.
type Identity struct {
	UserID      string
	DisplayName string
}
