package models

// UserProfile is the identity snapshot embedded into circles, debts, claims and settlements.
// It is copied by value at write time and is not a live reference to the user record.
type UserProfile struct {
	// UID is the identity provider's user ID.
	UID string `json:"uid"`

	// DisplayName is the name shown to other circle members.
	DisplayName string `json:"displayName"`

	// Email is the user's email address.
	Email string `json:"email"`

	// PhotoURL is an optional avatar URL.
	PhotoURL string `json:"photoURL,omitempty"`

	// Username is an optional unique handle.
	Username string `json:"username,omitempty"`
}

// Name returns the display name, falling back to the email when it is empty.
func (p UserProfile) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Email
}
