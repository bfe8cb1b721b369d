package models

// Principal is an authenticated actor. The id is opaque and issued by the
// external identity provider; this service never stores principals, it only
// references them from memberships, tokens, and audit events.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}
