package profile

import (
	"time"

	"spendly/internal/core"
	"spendly/internal/remote"
)

// Document field names.
const (
	fieldID          = "id"
	fieldEmail       = "email"
	fieldDisplayName = "displayName"
	fieldFirstName   = "firstName"
	fieldLastName    = "lastName"
	fieldPhone       = "phone"
	fieldBio         = "bio"
	fieldCreatedAt   = "createdAt"
)

// toDocument encodes p. Empty optional fields are left out.
func toDocument(p core.UserProfile) remote.Document {
	doc := remote.Document{
		fieldID:          p.ID,
		fieldEmail:       p.Email,
		fieldDisplayName: p.DisplayName,
		fieldCreatedAt:   p.CreatedAt,
	}
	optional := map[string]string{
		fieldFirstName: p.FirstName,
		fieldLastName:  p.LastName,
		fieldPhone:     p.Phone,
		fieldBio:       p.Bio,
	}
	for k, v := range optional {
		if v != "" {
			doc[k] = v
		}
	}
	return doc
}

// patchDocument encodes only the fields the patch touched, so a merge write
// leaves every other stored field alone and a cleared field is cleared
// remotely too.
func patchDocument(patch core.ProfilePatch) remote.Document {
	touched := map[string]*string{
		fieldEmail:       patch.Email,
		fieldDisplayName: patch.DisplayName,
		fieldFirstName:   patch.FirstName,
		fieldLastName:    patch.LastName,
		fieldPhone:       patch.Phone,
		fieldBio:         patch.Bio,
	}
	doc := remote.Document{}
	for k, v := range touched {
		if v != nil {
			doc[k] = *v
		}
	}
	return doc
}

// fromDocument decodes a stored profile. Unknown fields are ignored and
// missing ones stay empty.
func fromDocument(doc remote.Document) core.UserProfile {
	str := func(k string) string {
		s, _ := doc[k].(string)
		return s
	}
	p := core.UserProfile{
		ID:          str(fieldID),
		Email:       str(fieldEmail),
		DisplayName: str(fieldDisplayName),
		FirstName:   str(fieldFirstName),
		LastName:    str(fieldLastName),
		Phone:       str(fieldPhone),
		Bio:         str(fieldBio),
	}
	switch v := doc[fieldCreatedAt].(type) {
	case time.Time:
		p.CreatedAt = v
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			p.CreatedAt = t
		}
	}
	return p
}
