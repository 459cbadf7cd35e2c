package auth

import (
	"time"

	"github.com/boltdb/bolt"
	"github.com/gin-gonic/gin"
	"github.com/sponsorly/sponsorly/misc"
)

type signInReq struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"pass" binding:"required"`
}

func (a *Auth) SignInHandler(c *gin.Context) {
	var li signInReq
	if err := c.ShouldBindJSON(&li); err != nil {
		misc.AbortWithKind(c, 400, "ValidationError", ErrInvalidRequest)
		return
	}

	var (
		u     *User
		roles []string
		err   error
	)
	a.db.View(func(tx *bolt.Tx) error {
		if u, err = a.SignInTx(tx, li.Identifier, li.Password); err != nil {
			return nil
		}
		roles = a.RolesOfTx(tx, u.Id)
		return nil
	})
	if err != nil {
		code, kind := 401, "Unauthorized"
		if err == ErrUserFlagged || err == ErrUserDeleted {
			code, kind = 403, "Forbidden"
		}
		misc.AbortWithKind(c, code, kind, err)
		return
	}

	access, err := a.CreateAccessToken(u, roles)
	if err != nil {
		misc.AbortWithKind(c, 500, "InternalError", ErrUnexpected)
		return
	}
	refresh, err := a.CreateRefreshToken(u)
	if err != nil {
		misc.AbortWithKind(c, 500, "InternalError", ErrUnexpected)
		return
	}

	// the refresh token only ever travels in an http-only cookie
	misc.SetCookie(c.Writer, a.cfg.Host, RefreshCookie, refresh, !a.cfg.Sandbox, a.cfg.RefreshTokenAge())
	c.JSON(200, misc.StatusOKMsg("Login successful", gin.H{
		"token": access,
		"user":  gin.H{"id": u.Id, "username": u.Username, "email": u.Email, "roles": roles},
	}))
}

// RefreshHandler issues a fresh access token off the refresh cookie. The
// refresh token is not rotated.
func (a *Auth) RefreshHandler(c *gin.Context) {
	raw := misc.GetCookie(c.Request, RefreshCookie)
	if raw == "" {
		misc.AbortWithKind(c, 401, "Unauthorized", ErrInvalidToken)
		return
	}
	cl, err := a.ParseToken(raw)
	if err != nil {
		misc.AbortWithKind(c, 401, "Unauthorized", ErrInvalidToken)
		return
	}
	if !cl.IsRefresh() {
		misc.AbortWithKind(c, 401, "Unauthorized", ErrNotRefresh)
		return
	}

	var (
		u     *User
		roles []string
	)
	a.db.View(func(tx *bolt.Tx) error {
		if a.IsRevokedTx(tx, cl.ID, time.Now()) {
			return nil
		}
		if u = a.GetUserBySubjectTx(tx, cl.Subject); u != nil {
			roles = a.RolesOfTx(tx, u.Id)
		}
		return nil
	})
	if u == nil || !u.Active() {
		misc.AbortWithKind(c, 401, "Unauthorized", ErrInvalidToken)
		return
	}

	access, err := a.CreateAccessToken(u, roles)
	if err != nil {
		misc.AbortWithKind(c, 500, "InternalError", ErrUnexpected)
		return
	}
	c.JSON(200, misc.StatusOK(gin.H{"token": access}))
}

// SignOutHandler revokes the presented access token's jti for the rest of
// its lifetime and drops the refresh cookie. Must run behind VerifyUser.
func (a *Auth) SignOutHandler(c *gin.Context) {
	cl := GetCtxClaims(c)
	if cl.ID == "" {
		misc.AbortWithKind(c, 401, "Unauthorized", ErrInvalidToken)
		return
	}
	if err := a.db.Update(func(tx *bolt.Tx) error {
		return a.RevokeTx(tx, cl)
	}); err != nil {
		misc.AbortWithKind(c, 500, "InternalError", ErrUnexpected)
		return
	}
	misc.DeleteCookie(c.Writer, a.cfg.Host, RefreshCookie, !a.cfg.Sandbox)
	c.JSON(200, misc.StatusOKMsg("Signed out", nil))
}

func (a *Auth) MeHandler(c *gin.Context) {
	u := GetCtxUser(c)
	if u == nil {
		misc.AbortWithKind(c, 401, "Unauthorized", ErrUnauthorized)
		return
	}
	c.JSON(200, misc.StatusOK(gin.H{
		"id": u.Id, "username": u.Username, "email": u.Email,
		"roles": a.RolesOf(u.Id), "flagged": u.Flagged,
	}))
}
