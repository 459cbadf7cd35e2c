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

var (
	ErrInvalidCampaign = errors.New("invalid or incomplete campaign")
	ErrBadNiche        = errors.New("please provide a valid niche")
	ErrBadVisibility   = errors.New("visibility must be public or private")
	ErrBadStatus       = errors.New("please provide a valid campaign status")
)

type CampaignStatus string

const (
	CampaignYetToStart CampaignStatus = "YetToStart"
	CampaignActive     CampaignStatus = "Active"
	CampaignCompleted  CampaignStatus = "Completed"
)

func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignYetToStart, CampaignActive, CampaignCompleted:
		return true
	}
	return false
}

type Niche string

// Niches a campaign can target. Status transitions are always an explicit
// sponsor/admin action; nothing here is clock-driven.
var Niches = []Niche{
	"Fashion", "Fitness", "Gaming", "Technology", "Food",
	"Travel", "Beauty", "Education", "Finance", "Lifestyle",
}

func (n Niche) Valid() bool {
	for _, v := range Niches {
		if v == n {
			return true
		}
	}
	return false
}

const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

type Campaign struct {
	Id        string `json:"id"`
	SponsorId string `json:"sponsorId"`

	Name        string `json:"name"`
	Description string `json:"description"`

	StartDate int64 `json:"startDate"` // unix seconds
	EndDate   int64 `json:"endDate"`

	// Budget is a hard ceiling on the sum of active ad amounts, in whole
	// currency units.
	Budget int64 `json:"budget"`

	Status     CampaignStatus `json:"campaignStatus"`
	Niche      Niche          `json:"niche"`
	Visibility string         `json:"visibility"`

	CreatedAt int64 `json:"createdAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty"`

	Deletion Deletion `json:"deletion,omitempty"`
}

func (cmp *Campaign) Check() error {
	if cmp.Name == "" || cmp.Description == "" || cmp.Budget <= 0 {
		return ErrInvalidCampaign
	}
	if !cmp.Niche.Valid() {
		return ErrBadNiche
	}
	if !cmp.Status.Valid() {
		return ErrBadStatus
	}
	if cmp.Visibility != VisibilityPublic && cmp.Visibility != VisibilityPrivate {
		return ErrBadVisibility
	}
	return nil
}

// Update fills the sponsor-editable fields; Id, SponsorId and Deletion are
// never blindly set.
func (cmp *Campaign) Update(o *Campaign) *Campaign {
	cmp.Name, cmp.Description = o.Name, o.Description
	cmp.StartDate, cmp.EndDate = o.StartDate, o.EndDate
	cmp.Budget, cmp.Status, cmp.Niche, cmp.Visibility = o.Budget, o.Status, o.Niche, o.Visibility
	cmp.UpdatedAt = time.Now().UnixNano()
	return cmp
}

// Progress returns the elapsed-time percentage of the campaign window as of
// the given time, clamped to [0, 100]. Zero-length or not-yet-started
// windows report 0.
func (cmp *Campaign) Progress(asOf time.Time) float64 {
	start, end := time.Unix(cmp.StartDate, 0), time.Unix(cmp.EndDate, 0)
	if !end.After(start) || !asOf.After(start) {
		return 0
	}
	elapsed := asOf.Sub(start).Hours() / 24
	total := end.Sub(start).Hours() / 24
	return misc.Clamp(0, 100, elapsed/total*100)
}

func GetCampaignTx(tx *bolt.Tx, cfg *config.Config, id string) *Campaign {
	var cmp Campaign
	if misc.GetTxJson(tx, cfg.Bucket.Campaign, id, &cmp) == nil && cmp.Id != "" {
		return &cmp
	}
	return nil
}

func SaveCampaignTx(tx *bolt.Tx, cfg *config.Config, cmp *Campaign) error {
	return misc.PutTxJson(tx, cfg.Bucket.Campaign, cmp.Id, cmp)
}

// ForEachCampaignTx walks every stored campaign, including soft-deleted
// ones; the callback filters.
func ForEachCampaignTx(tx *bolt.Tx, cfg *config.Config, fn func(cmp *Campaign)) {
	misc.GetBucket(tx, cfg.Bucket.Campaign).ForEach(func(k, v []byte) error {
		var cmp Campaign
		if err := json.Unmarshal(v, &cmp); err != nil {
			log.Println("error when unmarshalling campaign", string(v))
			return nil
		}
		fn(&cmp)
		return nil
	})
}
