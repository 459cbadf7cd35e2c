package server

import (
	"github.com/boltdb/bolt"
	"github.com/gin-gonic/gin"
	"github.com/sponsorly/sponsorly/internal/auth"
	"github.com/sponsorly/sponsorly/internal/common"
	"github.com/sponsorly/sponsorly/misc"
)

func flagUser(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Reason string `json:"reason"`
		}
		c.ShouldBindJSON(&req) // reason is optional

		id := c.Param("id")
		if err := s.db.Update(func(tx *bolt.Tx) error {
			return s.auth.FlagUserTx(tx, id, req.Reason)
		}); err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(200, misc.StatusOKMsg("User flagged", id))
	}
}

func unflagUser(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := s.db.Update(func(tx *bolt.Tx) error {
			return s.auth.UnflagUserTx(tx, id)
		}); err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(200, misc.StatusOKMsg("User unflagged", id))
	}
}

func delUser(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := s.db.Update(func(tx *bolt.Tx) error {
			return s.auth.DelUserTx(tx, id)
		}); err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(200, misc.StatusOKMsg("User deleted", id))
	}
}

func restoreUser(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := s.db.Update(func(tx *bolt.Tx) error {
			return s.auth.RestoreUserTx(tx, id)
		}); err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(200, misc.StatusOKMsg("User restored", id))
	}
}

func assignRole(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Role string `json:"role"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			abortErr(c, auth.ErrInvalidRequest)
			return
		}

		id := c.Param("id")
		if err := s.db.Update(func(tx *bolt.Tx) error {
			return s.auth.AssignRoleTx(tx, id, req.Role)
		}); err != nil {
			abortErr(c, err)
			return
		}
		s.auth.InvalidateRoles(id)
		c.JSON(200, misc.StatusOKMsg("Role assigned", s.auth.RolesOf(id)))
	}
}

func advanceVerification(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Status string `json:"status"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			abortErr(c, auth.ErrInvalidRequest)
			return
		}
		target, err := common.ParseVerification(req.Status)
		if err != nil {
			abortErr(c, err)
			return
		}

		var sp *common.Sponsor
		if err := s.db.Update(func(tx *bolt.Tx) error {
			if sp = common.GetSponsorTx(tx, s.Cfg, c.Param("id")); sp == nil {
				return errSponsorNotFound
			}
			if err := sp.Advance(target); err != nil {
				return err
			}
			return common.SaveSponsorTx(tx, s.Cfg, sp)
		}); err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(200, misc.StatusOK(sp))
	}
}
