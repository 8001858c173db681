package authentication

import (
	"crypto/subtle"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash keeps the cost of a login for an unknown email close to the
// cost of a wrong password. It is hashed at the same cost as real passwords.
var dummyHash = mustHashPassword(uuid.NewString())

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}
	return string(hash), nil
}

func mustHashPassword(password string) string {
	hash, err := HashPassword(password)
	if err != nil {
		panic(err)
	}
	return hash
}

func isBcryptHash(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$")
}

// CheckPassword compares a candidate with the stored value. Rows written
// before hashing was introduced hold the password as is, needsRehash
// tells the caller to replace them.
func CheckPassword(stored, candidate string) (ok bool, needsRehash bool) {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)) == nil, false
	}
	if stored == "" {
		return false, false
	}
	ok = subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
	return ok, ok
}
