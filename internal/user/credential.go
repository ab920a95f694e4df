package user

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Credential is a stored password secret. Legacy rows hold the raw password;
// everything written since holds a bcrypt hash. The variant is decided once,
// at the storage boundary, instead of sniffing prefixes at every comparison.
//
// A credential only ever moves Plaintext -> Hashed, and only through the
// signin migration in Service.Authenticate.
type Credential struct {
	value  string
	hashed bool
}

// HashCredential bcrypt-hashes a raw password at the given cost.
func HashCredential(raw string, cost int) (Credential, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if err != nil {
		return Credential{}, err
	}
	return Credential{value: string(h), hashed: true}, nil
}

// CredentialFromStored classifies a secret read from storage. bcrypt hashes
// always start with the "$2" version prefix; anything else is a legacy
// plaintext row awaiting migration.
func CredentialFromStored(stored string) Credential {
	return Credential{value: stored, hashed: strings.HasPrefix(stored, "$2")}
}

// Hashed reports whether the credential holds a bcrypt hash.
func (c Credential) Hashed() bool { return c.hashed }

// Stored returns the value as persisted.
func (c Credential) Stored() string { return c.value }

// Matches checks a submitted password against the credential. Hashed values
// use bcrypt's constant-time compare; plaintext values compare directly.
func (c Credential) Matches(raw string) bool {
	if c.hashed {
		return bcrypt.CompareHashAndPassword([]byte(c.value), []byte(raw)) == nil
	}
	return c.value == raw
}
