package auth

// UserIdentity adapts a User into the Principal interface for token generation.
type UserIdentity struct {
	user *User
}

// NewIdentityFromUser returns a Principal adapter for the provided user.
func NewIdentityFromUser(user *User) Principal {
	if user == nil {
		return nil
	}
	return UserIdentity{user: user}
}

// ID returns the user's ID as a string.
func (u UserIdentity) ID() string {
	if u.user == nil {
		return ""
	}
	return u.user.ID.String()
}

// Email returns the user's email address.
func (u UserIdentity) Email() string {
	if u.user == nil {
		return ""
	}
	return u.user.Email
}

// Role returns the user's role as a string.
func (u UserIdentity) Role() string {
	if u.user == nil {
		return ""
	}
	return string(u.user.Role)
}

// IsActive reports whether the account may authenticate and hold tokens.
func (u UserIdentity) IsActive() bool {
	if u.user == nil {
		return false
	}
	return u.user.Enabled
}

var _ Principal = UserIdentity{}
