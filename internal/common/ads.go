package common

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/boltdb/bolt"
	"github.com/sponsorly/sponsorly/config"
	"github.com/sponsorly/sponsorly/misc"
)

var ErrBadAdStatus = errors.New("please provide a valid ad status")

type AdStatus string

const (
	AdPending     AdStatus = "Pending"
	AdNegotiation AdStatus = "Negotiation"
	AdAccepted    AdStatus = "Accepted"
	AdRejected    AdStatus = "Rejected"
	AdCompleted   AdStatus = "Completed"
)

func (s AdStatus) Valid() bool {
	switch s {
	case AdPending, AdNegotiation, AdAccepted, AdRejected, AdCompleted:
		return true
	}
	return false
}

// adTransitions is the full lifecycle graph. Rejected and Completed are
// terminal.
var adTransitions = map[AdStatus][]AdStatus{
	AdPending:     {AdNegotiation, AdAccepted, AdRejected},
	AdNegotiation: {AdAccepted, AdRejected},
	AdAccepted:    {AdCompleted},
}

func (s AdStatus) CanTransition(to AdStatus) bool {
	for _, t := range adTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

func AdStatuses() []AdStatus {
	return []AdStatus{AdPending, AdNegotiation, AdAccepted, AdRejected, AdCompleted}
}

// Ad is a sponsor's negotiated offer to an influencer under a campaign.
// Do NOT confuse this with the Campaign itself.
type Ad struct {
	Id         string `json:"id"`
	CampaignId string `json:"campaignId"` // immutable post-creation
	SponsorId  string `json:"sponsorId"`  // campaign owner, denormalized for auth checks

	InfluencerId string `json:"influencerId,omitempty"` // empty until an influencer engages

	// Amount is the committed ask counted against the campaign budget.
	// NegotiationAmount is the outstanding counter-offer; zero means none
	// pending. Only Amount counts toward the budget until the counter-offer
	// is accepted.
	Amount            int64 `json:"amount"`
	NegotiationAmount int64 `json:"negotiationAmount,omitempty"`

	Requirement string   `json:"requirement"`
	Messages    []string `json:"messages,omitempty"`

	Status AdStatus `json:"adStatus"`

	CreatedAt int64 `json:"createdAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty"`

	Deletion Deletion `json:"deletion,omitempty"`
}

func (ad *Ad) Touch() {
	ad.UpdatedAt = time.Now().UnixNano()
}

func GetAdTx(tx *bolt.Tx, cfg *config.Config, id string) *Ad {
	var ad Ad
	if misc.GetTxJson(tx, cfg.Bucket.Ads, id, &ad) == nil && ad.Id != "" {
		return &ad
	}
	return nil
}

func SaveAdTx(tx *bolt.Tx, cfg *config.Config, ad *Ad) error {
	return misc.PutTxJson(tx, cfg.Bucket.Ads, ad.Id, ad)
}

// ForEachAdTx walks every stored ad, including soft-deleted ones; the
// callback filters.
func ForEachAdTx(tx *bolt.Tx, cfg *config.Config, fn func(ad *Ad)) {
	misc.GetBucket(tx, cfg.Bucket.Ads).ForEach(func(k, v []byte) error {
		var ad Ad
		if err := json.Unmarshal(v, &ad); err != nil {
			log.Println("error when unmarshalling ad", string(v))
			return nil
		}
		fn(&ad)
		return nil
	})
}
