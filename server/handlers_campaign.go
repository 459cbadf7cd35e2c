package server

import (
	"time"

	"github.com/boltdb/bolt"
	"github.com/gin-gonic/gin"
	"github.com/sponsorly/sponsorly/internal/auth"
	"github.com/sponsorly/sponsorly/internal/budget"
	"github.com/sponsorly/sponsorly/internal/common"
	"github.com/sponsorly/sponsorly/misc"
)

func postCampaign(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cmp common.Campaign
		if err := c.ShouldBindJSON(&cmp); err != nil {
			abortErr(c, auth.ErrInvalidRequest)
			return
		}
		if cmp.Status == "" {
			cmp.Status = common.CampaignYetToStart
		}
		if cmp.Visibility == "" {
			cmp.Visibility = common.VisibilityPrivate
		}

		if err := s.db.Update(func(tx *bolt.Tx) (err error) {
			act := s.actorTx(tx, c)
			if act.SponsorId == "" {
				return errSponsorNotFound
			}
			cmp.SponsorId = act.SponsorId
			if err = cmp.Check(); err != nil {
				return
			}
			if cmp.Id, err = misc.GetNextIndex(tx, s.Cfg.Bucket.Campaign); err != nil {
				return
			}
			cmp.CreatedAt = time.Now().UnixNano()
			cmp.UpdatedAt = cmp.CreatedAt
			return common.SaveCampaignTx(tx, s.Cfg, &cmp)
		}); err != nil {
			abortErr(c, err)
			return
		}

		c.JSON(200, misc.StatusOK(&cmp))
	}
}

func putCampaign(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var upd common.Campaign
		if err := c.ShouldBindJSON(&upd); err != nil {
			abortErr(c, auth.ErrInvalidRequest)
			return
		}

		var cmp *common.Campaign
		if err := s.db.Update(func(tx *bolt.Tx) error {
			act := s.actorTx(tx, c)
			if cmp = common.GetCampaignTx(tx, s.Cfg, c.Param("id")); cmp == nil || !cmp.Deletion.Active() {
				return errCampaignNotFound
			}
			if !act.Admin && cmp.SponsorId != act.SponsorId {
				return errNotOwner
			}
			cmp.Update(&upd)
			if err := cmp.Check(); err != nil {
				return err
			}
			// the ceiling may not drop below what active ads already commit
			if spent := budget.SpentTx(tx, s.Cfg, cmp.Id, ""); cmp.Budget < spent {
				return errBudgetBelowSpend
			}
			return common.SaveCampaignTx(tx, s.Cfg, cmp)
		}); err != nil {
			abortErr(c, err)
			return
		}

		c.JSON(200, misc.StatusOK(cmp))
	}
}

func delCampaign(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := s.db.Update(func(tx *bolt.Tx) error {
			act := s.actorTx(tx, c)
			cmp := common.GetCampaignTx(tx, s.Cfg, id)
			if cmp == nil {
				return errCampaignNotFound
			}
			if !act.Admin && cmp.SponsorId != act.SponsorId {
				return errNotOwner
			}
			if err := cmp.Deletion.Delete(time.Now().UnixNano()); err != nil {
				return err
			}
			return common.SaveCampaignTx(tx, s.Cfg, cmp)
		}); err != nil {
			abortErr(c, err)
			return
		}

		c.JSON(200, misc.StatusOKMsg("Campaign deleted", id))
	}
}

func getCampaign(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var view *campaignView
		s.db.View(func(tx *bolt.Tx) error {
			cmp := common.GetCampaignTx(tx, s.Cfg, c.Param("id"))
			if cmp == nil || !cmp.Deletion.Active() {
				return nil
			}
			// private campaigns exist only for their owner and admins
			if cmp.Visibility != common.VisibilityPublic {
				act := s.actorTx(tx, c)
				if !act.Admin && cmp.SponsorId != act.SponsorId {
					return nil
				}
			}
			view = campaignViewTx(tx, s, cmp)
			return nil
		})
		if view == nil {
			abortErr(c, errCampaignNotFound)
			return
		}
		c.JSON(200, misc.StatusOK(view))
	}
}

// getCampaigns lists by role: sponsors see their own, admins see all,
// influencers see public active ones.
func getCampaigns(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		views := []*campaignView{}
		s.db.View(func(tx *bolt.Tx) error {
			act := s.actorTx(tx, c)
			common.ForEachCampaignTx(tx, s.Cfg, func(cmp *common.Campaign) {
				if !cmp.Deletion.Active() {
					return
				}
				switch {
				case act.Admin:
				case act.SponsorId != "":
					if cmp.SponsorId != act.SponsorId {
						return
					}
				default:
					if cmp.Visibility != common.VisibilityPublic || cmp.Status != common.CampaignActive {
						return
					}
				}
				views = append(views, campaignViewTx(tx, s, cmp))
			})
			return nil
		})
		c.JSON(200, misc.StatusOK(views))
	}
}

func getNiches() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, misc.StatusOK(common.Niches))
	}
}

func getAdStatuses() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, misc.StatusOK(common.AdStatuses()))
	}
}
