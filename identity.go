package session

import (
	"github.com/nyaruka/phonenumbers"
)

// UserIdentity is the resolved user attached to an authenticated state.
// An identity without an ID is not a valid session.
type UserIdentity struct {
	ID          string `json:"id"`
	Username    string `json:"username,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// Valid reports whether the identity carries a stable id.
func (u *UserIdentity) Valid() bool {
	return u != nil && u.ID != ""
}

// buildIdentity merges the provider user record with token claims. Claims
// win for email, display name, and avatar; the record backfills the rest.
func buildIdentity(user *ProviderUser, claims TokenClaims) *UserIdentity {
	identity := &UserIdentity{
		ID:          claims.Subject,
		Username:    claims.Username,
		Email:       claims.Email,
		DisplayName: claims.Name,
		AvatarURL:   claims.Picture,
		PhoneNumber: normalizePhone(claims.PhoneNumber),
	}

	if user != nil {
		if identity.ID == "" {
			identity.ID = user.UserID
		}
		if identity.Username == "" {
			identity.Username = user.Username
		}
		if identity.Email == "" {
			identity.Email = user.LoginID
		}
	}

	if identity.DisplayName == "" {
		identity.DisplayName = identity.Username
	}

	return identity
}

// normalizePhone formats a phone claim as E.164. Numbers that cannot be
// parsed pass through untouched; the claim is informational only.
func normalizePhone(raw string) string {
	if raw == "" {
		return ""
	}
	num, err := phonenumbers.Parse(raw, "")
	if err != nil {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
