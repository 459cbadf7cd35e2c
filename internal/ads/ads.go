// Package ads is the ad-request negotiation engine: one exported ...Tx
// function per lifecycle operation, each meant to run inside a single
// bolt read-write transaction so the budget invariant is checked and
// committed atomically.
package ads

import (
	"errors"
	"time"

	"github.com/boltdb/bolt"
	"github.com/sponsorly/sponsorly/config"
	"github.com/sponsorly/sponsorly/internal/budget"
	"github.com/sponsorly/sponsorly/internal/common"
	"github.com/sponsorly/sponsorly/misc"
)

var (
	ErrAdNotFound           = errors.New("ad request not found")
	ErrCampaignNotFound     = errors.New("campaign not found")
	ErrInfluencerNotFound   = errors.New("influencer not found")
	ErrForbidden            = errors.New("not a party to this ad request")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrMissingRequirement   = errors.New("requirement is required")
	ErrInvalidTransition    = errors.New("status change not allowed from the current state")
	ErrNoNegotiationPending = errors.New("no negotiation amount to accept")
)

// Actor is the resolved identity of the caller: role claims plus the
// sponsor/influencer records hanging off the user, looked up once per
// request.
type Actor struct {
	UserId       string
	SponsorId    string
	InfluencerId string
	Admin        bool
}

func (a Actor) ownsCampaign(cmp *common.Campaign) bool {
	return a.SponsorId != "" && a.SponsorId == cmp.SponsorId
}

func (a Actor) partyTo(ad *common.Ad) bool {
	if a.SponsorId != "" && a.SponsorId == ad.SponsorId {
		return true
	}
	return a.InfluencerId != "" && a.InfluencerId == ad.InfluencerId
}

// CreateTx inserts a Pending ad request against a live campaign the actor
// owns, counting the new amount against the remaining budget.
func CreateTx(tx *bolt.Tx, cfg *config.Config, actor Actor, campaignId, influencerId string, amount int64, requirement string) (*common.Ad, error) {
	cmp := common.GetCampaignTx(tx, cfg, campaignId)
	if cmp == nil || !cmp.Deletion.Active() {
		return nil, ErrCampaignNotFound
	}
	if !actor.ownsCampaign(cmp) {
		return nil, ErrForbidden
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if requirement == "" {
		return nil, ErrMissingRequirement
	}
	if influencerId != "" && common.GetInfluencerTx(tx, cfg, influencerId) == nil {
		return nil, ErrInfluencerNotFound
	}

	// the row doesn't exist yet, so nothing to exclude from the sum
	if err := budget.ValidateTx(tx, cfg, cmp, amount, ""); err != nil {
		return nil, err
	}

	id, err := misc.GetNextIndex(tx, cfg.Bucket.Ads)
	if err != nil {
		return nil, err
	}
	now := time.Now().UnixNano()
	ad := &common.Ad{
		Id:           id,
		CampaignId:   cmp.Id,
		SponsorId:    cmp.SponsorId,
		InfluencerId: influencerId,
		Amount:       amount,
		Requirement:  requirement,
		Status:       common.AdPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := common.SaveAdTx(tx, cfg, ad); err != nil {
		return nil, err
	}
	return ad, nil
}

// UpdateTx changes the committed ask, re-validating the budget with the
// ad's own prior amount excluded from the existing sum.
func UpdateTx(tx *bolt.Tx, cfg *config.Config, actor Actor, adId string, amount int64, requirement string) (*common.Ad, error) {
	ad := getActiveAdTx(tx, cfg, adId)
	if ad == nil {
		return nil, ErrAdNotFound
	}
	if actor.SponsorId == "" || actor.SponsorId != ad.SponsorId {
		return nil, ErrForbidden
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	cmp := common.GetCampaignTx(tx, cfg, ad.CampaignId)
	if cmp == nil {
		return nil, ErrCampaignNotFound
	}
	if err := budget.ValidateTx(tx, cfg, cmp, amount, ad.Id); err != nil {
		return nil, err
	}

	ad.Amount = amount
	if requirement != "" {
		ad.Requirement = requirement
	}
	ad.Touch()
	return ad, common.SaveAdTx(tx, cfg, ad)
}

// NegotiateTx records a counter-offer and moves the ad to Negotiation.
// The budget is deliberately not re-checked here; only the committed
// amount counts until the counter-offer is accepted.
func NegotiateTx(tx *bolt.Tx, cfg *config.Config, actor Actor, adId string, amount int64, message string) (*common.Ad, error) {
	ad := getActiveAdTx(tx, cfg, adId)
	if ad == nil {
		return nil, ErrAdNotFound
	}
	if !actor.partyTo(ad) {
		return nil, ErrForbidden
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	// counter-offers are only open before a side has committed
	if ad.Status != common.AdPending && ad.Status != common.AdNegotiation {
		return nil, ErrInvalidTransition
	}

	ad.NegotiationAmount = amount
	ad.Status = common.AdNegotiation
	if message != "" {
		ad.Messages = append(ad.Messages, message)
	}
	ad.Touch()
	return ad, common.SaveAdTx(tx, cfg, ad)
}

// AcceptNegotiationTx promotes the counter-offer into the committed
// amount, re-validating the budget first. On a failed check nothing is
// written and the ad stays in Negotiation.
func AcceptNegotiationTx(tx *bolt.Tx, cfg *config.Config, actor Actor, adId string) (*common.Ad, error) {
	ad := getActiveAdTx(tx, cfg, adId)
	if ad == nil {
		return nil, ErrAdNotFound
	}
	if !actor.partyTo(ad) {
		return nil, ErrForbidden
	}
	if ad.NegotiationAmount == 0 {
		return nil, ErrNoNegotiationPending
	}
	if !ad.Status.CanTransition(common.AdAccepted) {
		return nil, ErrInvalidTransition
	}
	cmp := common.GetCampaignTx(tx, cfg, ad.CampaignId)
	if cmp == nil {
		return nil, ErrCampaignNotFound
	}
	if err := budget.ValidateTx(tx, cfg, cmp, ad.NegotiationAmount, ad.Id); err != nil {
		return nil, err
	}

	ad.Amount, ad.NegotiationAmount = ad.NegotiationAmount, 0
	ad.Status = common.AdAccepted
	ad.Touch()
	return ad, common.SaveAdTx(tx, cfg, ad)
}

// SetStatusTx performs a direct transition. Moving to Accepted re-checks
// the budget against the current amount even though every amount mutation
// already went through a guard; a future code path might not.
func SetStatusTx(tx *bolt.Tx, cfg *config.Config, actor Actor, adId string, target common.AdStatus) (*common.Ad, error) {
	ad := getActiveAdTx(tx, cfg, adId)
	if ad == nil {
		return nil, ErrAdNotFound
	}
	if !actor.partyTo(ad) && !actor.Admin {
		return nil, ErrForbidden
	}
	if !target.Valid() {
		return nil, common.ErrBadAdStatus
	}
	if !ad.Status.CanTransition(target) {
		return nil, ErrInvalidTransition
	}
	if target == common.AdAccepted {
		cmp := common.GetCampaignTx(tx, cfg, ad.CampaignId)
		if cmp == nil {
			return nil, ErrCampaignNotFound
		}
		if err := budget.ValidateTx(tx, cfg, cmp, ad.Amount, ad.Id); err != nil {
			return nil, err
		}
	}

	ad.Status = target
	ad.Touch()
	return ad, common.SaveAdTx(tx, cfg, ad)
}

// DeleteTx soft-deletes, immediately freeing the ad's amount from the
// ledger while keeping the row addressable for history.
func DeleteTx(tx *bolt.Tx, cfg *config.Config, actor Actor, adId string) error {
	ad := getActiveAdTx(tx, cfg, adId)
	if ad == nil {
		return ErrAdNotFound
	}
	if !actor.Admin && (actor.SponsorId == "" || actor.SponsorId != ad.SponsorId) {
		return ErrForbidden
	}
	if err := ad.Deletion.Delete(time.Now().UnixNano()); err != nil {
		return err
	}
	ad.Touch()
	return common.SaveAdTx(tx, cfg, ad)
}

func ByCampaignTx(tx *bolt.Tx, cfg *config.Config, campaignId string) (out []*common.Ad) {
	common.ForEachAdTx(tx, cfg, func(ad *common.Ad) {
		if ad.CampaignId == campaignId && ad.Deletion.Active() {
			out = append(out, ad)
		}
	})
	return
}

func ByInfluencerTx(tx *bolt.Tx, cfg *config.Config, influencerId string) (out []*common.Ad) {
	common.ForEachAdTx(tx, cfg, func(ad *common.Ad) {
		if ad.InfluencerId == influencerId && ad.Deletion.Active() {
			out = append(out, ad)
		}
	})
	return
}

func getActiveAdTx(tx *bolt.Tx, cfg *config.Config, adId string) *common.Ad {
	if ad := common.GetAdTx(tx, cfg, adId); ad != nil && ad.Deletion.Active() {
		return ad
	}
	return nil
}
