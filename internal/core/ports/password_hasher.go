package ports

// PasswordHasher generates and checks salted password hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}
