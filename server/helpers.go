package server

import (
	"errors"
	"time"

	"github.com/boltdb/bolt"
	"github.com/gin-gonic/gin"
	"github.com/sponsorly/sponsorly/internal/ads"
	"github.com/sponsorly/sponsorly/internal/auth"
	"github.com/sponsorly/sponsorly/internal/budget"
	"github.com/sponsorly/sponsorly/internal/common"
)

var (
	errCampaignNotFound = errors.New("campaign not found")
	errSponsorNotFound  = errors.New("sponsor not found")
	errNotOwner         = errors.New("you do not own this campaign")
	errBudgetBelowSpend = errors.New("budget cannot be lowered below the amount committed to active ads")
)

// actorTx resolves the caller into the engine's Actor inside the same
// transaction the operation runs in.
func (s *Server) actorTx(tx *bolt.Tx, c *gin.Context) (act ads.Actor) {
	u, cl := auth.GetCtxUser(c), auth.GetCtxClaims(c)
	if u == nil {
		return
	}
	act.UserId = u.Id
	act.Admin = cl.HasRole(auth.AdminScope)
	if sp := common.GetSponsorByUserTx(tx, s.Cfg, u.Id); sp != nil {
		act.SponsorId = sp.Id
	}
	if inf := common.GetInfluencerByUserTx(tx, s.Cfg, u.Id); inf != nil {
		act.InfluencerId = inf.Id
	}
	return
}

// campaignView is the derived read model for a campaign: committed spend,
// remaining budget and elapsed-time progress.
type campaignView struct {
	*common.Campaign
	Spent     int64   `json:"spent"`
	Remaining int64   `json:"remaining"`
	Progress  float64 `json:"progress"`
}

func campaignViewTx(tx *bolt.Tx, s *Server, cmp *common.Campaign) *campaignView {
	spent := budget.SpentTx(tx, s.Cfg, cmp.Id, "")
	return &campaignView{
		Campaign:  cmp,
		Spent:     spent,
		Remaining: cmp.Budget - spent,
		Progress:  cmp.Progress(time.Now()),
	}
}
