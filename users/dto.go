package users

// UpdateUserRequest is the payload for a partial profile update. Only
// username and email are client-mutable.
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}
