package auth

import (
	"strings"
	"time"

	"github.com/boltdb/bolt"
	"github.com/gin-gonic/gin"
	"github.com/sponsorly/sponsorly/config"
	"github.com/sponsorly/sponsorly/misc"
)

const RefreshCookie = "refresh"

type Auth struct {
	db    *bolt.DB
	cfg   *config.Config
	cache Cache
}

func New(db *bolt.DB, cfg *config.Config) *Auth {
	return &Auth{
		db:    db,
		cfg:   cfg,
		cache: NewCache(cfg.RoleCacheAge()),
	}
}

// for tests
func (a *Auth) SetCache(c Cache) { a.cache = c }

// SignInTx matches the identifier as an email when it parses as one, else
// as a username, and verifies the password in constant time either way.
func (a *Auth) SignInTx(tx *bolt.Tx, identifier, pass string) (*User, error) {
	var u *User
	if LooksLikeEmail(identifier) {
		u = a.GetUserByEmailTx(tx, identifier)
	} else {
		u = a.GetUserByUsernameTx(tx, identifier)
	}
	if u == nil {
		// burn a compare so a bad identifier costs the same as a bad password
		CheckPassword(dummyHash, pass)
		return nil, ErrInvalidCredentials
	}
	l := a.GetLoginTx(tx, u.Email)
	if l == nil || !CheckPassword(l.Password, pass) {
		return nil, ErrInvalidCredentials
	}
	if u.Flagged {
		return nil, ErrUserFlagged
	}
	if !u.Deletion.Active() {
		return nil, ErrUserDeleted
	}
	return u, nil
}

func getBearer(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return misc.GetCookie(c.Request, "token")
}

// VerifyUser authenticates the request from its access token, failing
// closed on revoked jtis. Revocation takes effect immediately; only the
// role-name cache is allowed to be stale.
func (a *Auth) VerifyUser(c *gin.Context) {
	cl, u, err := a.verify(c)
	if err != nil {
		misc.AbortWithKind(c, 401, "Unauthorized", err)
		return
	}
	c.Set(claimsKey, cl)
	c.Set(gin.AuthUserKey, u)
}

// VerifyUserSoft yields an empty claim set instead of failing when no
// token is present, for routes that tolerate anonymous reads.
func (a *Auth) VerifyUserSoft(c *gin.Context) {
	if getBearer(c) == "" {
		c.Set(claimsKey, &Claims{})
		return
	}
	a.VerifyUser(c)
}

func (a *Auth) verify(c *gin.Context) (cl *Claims, u *User, err error) {
	raw := getBearer(c)
	if raw == "" {
		return nil, nil, ErrUnauthorized
	}
	if cl, err = a.ParseToken(raw); err != nil {
		return nil, nil, err
	}
	if cl.IsRefresh() {
		return nil, nil, ErrInvalidToken
	}
	a.db.View(func(tx *bolt.Tx) error {
		if a.IsRevokedTx(tx, cl.ID, time.Now()) {
			err = ErrTokenRevoked
			return nil
		}
		u = a.GetUserBySubjectTx(tx, cl.Subject)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if u == nil || !u.Active() {
		return nil, nil, ErrUnauthorized
	}
	return cl, u, nil
}

// CheckScopes returns a gin handler that gates the route on the claim
// set's roles; anonymous callers are always denied.
func (a *Auth) CheckScopes(sm ScopeMap) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cl := GetCtxClaims(c); sm.HasAnyAccess(cl.Roles, c.Request.Method) {
			return
		}
		misc.AbortWithKind(c, 403, "Forbidden", ErrUnauthorized)
	}
}
