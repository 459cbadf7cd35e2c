package server

import (
	"time"

	"github.com/boltdb/bolt"
	"github.com/gin-gonic/gin"
	"github.com/sponsorly/sponsorly/internal/auth"
	"github.com/sponsorly/sponsorly/internal/common"
	"github.com/sponsorly/sponsorly/misc"
)

type signUpReq struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`

	Role string `json:"role"`

	// sponsor fields
	CompanyName string `json:"companyName,omitempty"`
	Industry    string `json:"industry,omitempty"`
	Description string `json:"description,omitempty"`

	// influencer fields
	Category string `json:"category,omitempty"`
	About    string `json:"about,omitempty"`
}

// signUp creates the account, its role and its sponsor or influencer record
// in a single transaction, so a half-registered user can never exist.
func signUp(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signUpReq
		if err := c.ShouldBindJSON(&req); err != nil {
			abortErr(c, auth.ErrInvalidRequest)
			return
		}
		if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
			abortErr(c, auth.ErrPasswordMismatch)
			return
		}
		role := auth.Scope(req.Role)
		if role != auth.SponsorScope && role != auth.InfluencerScope {
			abortErr(c, auth.ErrRoleNotFound)
			return
		}

		u := &auth.User{Username: req.Username, Email: req.Email}
		if err := s.db.Update(func(tx *bolt.Tx) error {
			if err := s.auth.CreateUserTx(tx, u, req.Password); err != nil {
				return err
			}
			if err := s.auth.AssignRoleTx(tx, u.Id, req.Role); err != nil {
				return err
			}
			now := time.Now().UnixNano()
			if role == auth.SponsorScope {
				sp := &common.Sponsor{
					UserId:      u.Id,
					CompanyName: req.CompanyName,
					Industry:    req.Industry,
					Description: req.Description,
					CreatedAt:   now,
					UpdatedAt:   now,
				}
				if err := sp.Check(); err != nil {
					return err
				}
				var err error
				if sp.Id, err = misc.GetNextIndex(tx, s.Cfg.Bucket.Sponsor); err != nil {
					return err
				}
				return common.SaveSponsorTx(tx, s.Cfg, sp)
			}
			inf := &common.Influencer{
				UserId:    u.Id,
				Category:  req.Category,
				About:     req.About,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := inf.Check(); err != nil {
				return err
			}
			var err error
			if inf.Id, err = misc.GetNextIndex(tx, s.Cfg.Bucket.Influencer); err != nil {
				return err
			}
			return common.SaveInfluencerTx(tx, s.Cfg, inf)
		}); err != nil {
			abortErr(c, err)
			return
		}

		c.JSON(200, misc.StatusOKMsg("Account created", u))
	}
}

// updateMe renames the caller's username/email; issued tokens keep working
// since the subject claim is stable.
func updateMe(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username"`
			Email    string `json:"email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			abortErr(c, auth.ErrInvalidRequest)
			return
		}

		me := auth.GetCtxUser(c)
		if me == nil {
			abortErr(c, auth.ErrUnauthorized)
			return
		}

		var u *auth.User
		if err := s.db.Update(func(tx *bolt.Tx) (err error) {
			u, err = s.auth.UpdateIdentifierTx(tx, me.Id, req.Username, req.Email)
			return
		}); err != nil {
			abortErr(c, err)
			return
		}

		c.JSON(200, misc.StatusOK(u))
	}
}

func changePassword(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			OldPassword string `json:"oldPassword"`
			NewPassword string `json:"newPassword"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			abortErr(c, auth.ErrInvalidRequest)
			return
		}

		me := auth.GetCtxUser(c)
		if me == nil {
			abortErr(c, auth.ErrUnauthorized)
			return
		}

		if err := s.db.Update(func(tx *bolt.Tx) error {
			return s.auth.ChangePasswordTx(tx, me.Id, req.OldPassword, req.NewPassword)
		}); err != nil {
			abortErr(c, err)
			return
		}

		c.JSON(200, misc.StatusOKMsg("Password changed", nil))
	}
}
