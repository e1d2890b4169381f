package models

type User struct {
	ID              int64  `db:"id"`
	ExternalSubject string `db:"external_subject"` // sub claim from the identity provider
}
