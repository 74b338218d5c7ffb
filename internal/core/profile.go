package core

import "time"

// UserProfile is the per-user document kept in the remote document store.
type UserProfile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	FirstName   string    `json:"firstName,omitempty"`
	LastName    string    `json:"lastName,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ProfilePatch is a partial profile update; nil fields are left unchanged.
// ID and CreatedAt are owned by the identity and cannot be patched.
type ProfilePatch struct {
	Email       *string `json:"email,omitempty"`
	DisplayName *string `json:"displayName,omitempty"`
	FirstName   *string `json:"firstName,omitempty"`
	LastName    *string `json:"lastName,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Bio         *string `json:"bio,omitempty"`
}

// Apply returns a copy of p with every non-nil patch field replaced.
func (pp ProfilePatch) Apply(p UserProfile) UserProfile {
	if pp.Email != nil {
		p.Email = *pp.Email
	}
	if pp.DisplayName != nil {
		p.DisplayName = *pp.DisplayName
	}
	if pp.FirstName != nil {
		p.FirstName = *pp.FirstName
	}
	if pp.LastName != nil {
		p.LastName = *pp.LastName
	}
	if pp.Phone != nil {
		p.Phone = *pp.Phone
	}
	if pp.Bio != nil {
		p.Bio = *pp.Bio
	}
	return p
}
