package server

import (
	"github.com/boltdb/bolt"
	"github.com/gin-gonic/gin"
	"github.com/sponsorly/sponsorly/internal/ads"
	"github.com/sponsorly/sponsorly/internal/auth"
	"github.com/sponsorly/sponsorly/internal/common"
	"github.com/sponsorly/sponsorly/misc"
)

type adRequestPayload struct {
	CampaignId   string `json:"campaignId"`
	InfluencerId string `json:"influencerId"`
	Amount       int64  `json:"amount"`
	Requirement  string `json:"requirement"`
}

func createAdRequest(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p adRequestPayload
		if err := c.ShouldBindJSON(&p); err != nil {
			abortErr(c, auth.ErrInvalidRequest)
			return
		}

		var ad *common.Ad
		if err := s.db.Update(func(tx *bolt.Tx) (err error) {
			act := s.actorTx(tx, c)
			ad, err = ads.CreateTx(tx, s.Cfg, act, p.CampaignId, p.InfluencerId, p.Amount, p.Requirement)
			return
		}); err != nil {
			abortErr(c, err)
			return
		}

		c.JSON(200, misc.StatusOK(ad))
	}
}

func updateAdRequest(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p adRequestPayload
		if err := c.ShouldBindJSON(&p); err != nil {
			abortErr(c, auth.ErrInvalidRequest)
			return
		}

		var ad *common.Ad
		if err := s.db.Update(func(tx *bolt.Tx) (err error) {
			act := s.actorTx(tx, c)
			ad, err = ads.UpdateTx(tx, s.Cfg, act, c.Param("id"), p.Amount, p.Requirement)
			return
		}); err != nil {
			abortErr(c, err)
			return
		}

		c.JSON(200, misc.StatusOK(ad))
	}
}

func negotiateAdRequest(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p struct {
			Amount  int64  `json:"amount"`
			Message string `json:"message"`
		}
		if err := c.ShouldBindJSON(&p); err != nil {
			abortErr(c, auth.ErrInvalidRequest)
			return
		}

		var ad *common.Ad
		if err := s.db.Update(func(tx *bolt.Tx) (err error) {
			act := s.actorTx(tx, c)
			ad, err = ads.NegotiateTx(tx, s.Cfg, act, c.Param("id"), p.Amount, p.Message)
			return
		}); err != nil {
			abortErr(c, err)
			return
		}

		c.JSON(200, misc.StatusOK(ad))
	}
}

func acceptNegotiation(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var ad *common.Ad
		if err := s.db.Update(func(tx *bolt.Tx) (err error) {
			act := s.actorTx(tx, c)
			ad, err = ads.AcceptNegotiationTx(tx, s.Cfg, act, c.Param("id"))
			return
		}); err != nil {
			abortErr(c, err)
			return
		}

		c.JSON(200, misc.StatusOK(ad))
	}
}

func setAdStatus(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p struct {
			Status common.AdStatus `json:"status"`
		}
		if err := c.ShouldBindJSON(&p); err != nil {
			abortErr(c, auth.ErrInvalidRequest)
			return
		}

		var ad *common.Ad
		if err := s.db.Update(func(tx *bolt.Tx) (err error) {
			act := s.actorTx(tx, c)
			ad, err = ads.SetStatusTx(tx, s.Cfg, act, c.Param("id"), p.Status)
			return
		}); err != nil {
			abortErr(c, err)
			return
		}

		c.JSON(200, misc.StatusOK(ad))
	}
}

func delAdRequest(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := s.db.Update(func(tx *bolt.Tx) error {
			act := s.actorTx(tx, c)
			return ads.DeleteTx(tx, s.Cfg, act, id)
		}); err != nil {
			abortErr(c, err)
			return
		}

		c.JSON(200, misc.StatusOKMsg("Ad request deleted", id))
	}
}

// adsForCampaign lists a campaign's active ad requests. Owning sponsors and
// admins see every request, influencers only the ones addressed to them.
func adsForCampaign(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			out      []*common.Ad
			outerErr error
		)
		s.db.View(func(tx *bolt.Tx) error {
			act := s.actorTx(tx, c)
			cmp := common.GetCampaignTx(tx, s.Cfg, c.Param("id"))
			if cmp == nil || !cmp.Deletion.Active() {
				outerErr = errCampaignNotFound
				return nil
			}
			list := ads.ByCampaignTx(tx, s.Cfg, cmp.Id)
			if act.Admin || cmp.SponsorId == act.SponsorId {
				out = list
				return nil
			}
			for _, ad := range list {
				if ad.InfluencerId == act.InfluencerId && act.InfluencerId != "" {
					out = append(out, ad)
				}
			}
			return nil
		})
		if outerErr != nil {
			abortErr(c, outerErr)
			return
		}
		if out == nil {
			out = []*common.Ad{}
		}
		c.JSON(200, misc.StatusOK(out))
	}
}

func adsForInfluencer(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			out      = []*common.Ad{}
			outerErr error
		)
		s.db.View(func(tx *bolt.Tx) error {
			act := s.actorTx(tx, c)
			inf := common.GetInfluencerTx(tx, s.Cfg, c.Param("id"))
			if inf == nil {
				outerErr = ads.ErrInfluencerNotFound
				return nil
			}
			if !act.Admin && act.InfluencerId != inf.Id {
				outerErr = ads.ErrForbidden
				return nil
			}
			out = append(out, ads.ByInfluencerTx(tx, s.Cfg, inf.Id)...)
			return nil
		})
		if outerErr != nil {
			abortErr(c, outerErr)
			return
		}
		c.JSON(200, misc.StatusOK(out))
	}
}
