package ports

// TokenManager issues and verifies the bearer tokens identifying users.
type TokenManager interface {
	// Issue returns a new signed token for the given user id.
	Issue(userID string) (string, error)
	// Verify checks the token and returns the user id it was issued for.
	Verify(token string) (string, error)
}
