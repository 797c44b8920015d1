package user

import "context"

// Credentials pairs a User with its plain text password, for handing out only.
type Credentials struct {
	User       User
	Password   string
	ClassNames []string
}

// CredentialsGenerator renders credentials into a document and returns its file name.
type CredentialsGenerator interface {
	GenerateCredentials(ctx context.Context, creds []Credentials) (string, error)
}
