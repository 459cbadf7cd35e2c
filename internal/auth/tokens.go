package auth

import (
	"strconv"
	"time"

	"github.com/boltdb/bolt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sponsorly/sponsorly/misc"
)

const refreshType = "refresh"

// Claims is the verified content of an access or refresh token. The
// subject is the user's stable Subject id, never the mutable username or
// email.
type Claims struct {
	UserId   string   `json:"userId,omitempty"`
	Username string   `json:"username,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	Typ      string   `json:"typ,omitempty"`
	jwt.RegisteredClaims
}

func (cl *Claims) IsRefresh() bool { return cl.Typ == refreshType }

func (cl *Claims) HasRole(s Scope) bool {
	return misc.StringsIndexOf(cl.Roles, string(s)) > -1
}

func (a *Auth) CreateAccessToken(u *User, roles []string) (string, error) {
	now := time.Now()
	cl := &Claims{
		UserId:   u.Id,
		Username: u.Username,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.AccessTokenAge())),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString([]byte(a.cfg.JWTSecret))
}

// CreateRefreshToken issues a subject-only refresh token. Refresh is
// idempotent: the old token stays valid for its lifetime, which leaves a
// replay window we accept to match the documented behavior.
func (a *Auth) CreateRefreshToken(u *User) (string, error) {
	now := time.Now()
	cl := &Claims{
		Typ: refreshType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.RefreshTokenAge())),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString([]byte(a.cfg.JWTSecret))
}

func (a *Auth) ParseToken(raw string) (*Claims, error) {
	var cl Claims
	tok, err := jwt.ParseWithClaims(raw, &cl, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(a.cfg.JWTSecret), nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return &cl, nil
}

// RevokeTx blocklists a token's jti for the remainder of its lifetime.
func (a *Auth) RevokeTx(tx *bolt.Tx, cl *Claims) error {
	if cl.ID == "" || cl.ExpiresAt == nil {
		return ErrInvalidToken
	}
	exp := strconv.FormatInt(cl.ExpiresAt.UnixNano(), 10)
	return misc.PutBucketBytes(tx, a.cfg.Bucket.Token, cl.ID, []byte(exp))
}

// IsRevokedTx is check-and-expire: a revocation entry past its expiry is
// no longer a revocation (the token itself is dead by then), and is pruned
// in place when the transaction is writable, so no background sweep is
// needed.
func (a *Auth) IsRevokedTx(tx *bolt.Tx, jti string, now time.Time) bool {
	b := misc.GetBucket(tx, a.cfg.Bucket.Token).Get([]byte(jti))
	if len(b) == 0 {
		return false
	}
	exp, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil || exp <= now.UnixNano() {
		if tx.Writable() {
			misc.DelBucketBytes(tx, a.cfg.Bucket.Token, jti)
		}
		return false
	}
	return true
}
