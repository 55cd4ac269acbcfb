// Package model defines the data structures used throughout the application.
package model

import "time"

// User is the internal account record for a signed-in person.
//
// ExternalID is the subject issued by the OAuth provider. It is set once when
// the row is created and never changes; the UNIQUE constraint on external_id
// guarantees one external identity maps to exactly one User.
type User struct {
	ID          string    `json:"id"          db:"id"`
	ExternalID  string    `json:"externalId"  db:"external_id"`
	Email       string    `json:"email"       db:"email"`
	DisplayName string    `json:"displayName" db:"display_name"`
	AvatarURL   string    `json:"avatarUrl"   db:"avatar_url"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}

// ExternalIdentity is a verified identity handed over by the sign-in provider.
type ExternalIdentity struct {
	ID        string
	Email     string
	FullName  string
	AvatarURL string
}
