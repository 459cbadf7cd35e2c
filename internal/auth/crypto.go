package auth

import "golang.org/x/crypto/bcrypt"

const bcryptRounds = 12

func HashPassword(password string) (string, error) {
	if len(password) == 0 {
		return "", ErrShortPass
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcryptRounds)
	return string(h), err
}

func CheckPassword(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// dummyHash is compared against when no matching login exists so a failed
// identifier and a failed password take the same time.
var dummyHash, _ = HashPassword("sponsorly-timing-pad")
