package common

import (
	"errors"
	"time"

	"github.com/boltdb/bolt"
	"github.com/sponsorly/sponsorly/config"
	"github.com/sponsorly/sponsorly/misc"
)

var (
	ErrInvalidInfluencer = errors.New("invalid or incomplete influencer")
	ErrProfileExists     = errors.New("social profile already registered for this platform and username")
)

// SocialProfile is owned by exactly one influencer and goes away with it.
type SocialProfile struct {
	Platform  string `json:"platform"`
	Username  string `json:"username"`
	Followers int64  `json:"followers,omitempty"`
}

type Influencer struct {
	Id     string `json:"id"`
	UserId string `json:"userId"`

	About    string `json:"about,omitempty"`
	Category string `json:"category"`

	// Followers is the aggregate across profiles. It is derived; an
	// external collaborator recomputes it asynchronously.
	Followers int64 `json:"followers,omitempty"`

	Profiles []SocialProfile `json:"profiles,omitempty"`

	CreatedAt int64 `json:"createdAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty"`
}

func (inf *Influencer) Check() error {
	if inf.UserId == "" || inf.Category == "" {
		return ErrInvalidInfluencer
	}
	return nil
}

// AddProfile appends a social profile, rejecting duplicates on the
// platform+username pair.
func (inf *Influencer) AddProfile(p SocialProfile) error {
	for _, o := range inf.Profiles {
		if o.Platform == p.Platform && o.Username == p.Username {
			return ErrProfileExists
		}
	}
	inf.Profiles = append(inf.Profiles, p)
	inf.Followers = inf.TotalFollowers()
	inf.UpdatedAt = time.Now().UnixNano()
	return nil
}

func (inf *Influencer) TotalFollowers() (n int64) {
	for _, p := range inf.Profiles {
		n += p.Followers
	}
	return
}

func GetInfluencerTx(tx *bolt.Tx, cfg *config.Config, id string) *Influencer {
	var inf Influencer
	if misc.GetTxJson(tx, cfg.Bucket.Influencer, id, &inf) == nil && inf.Id != "" {
		return &inf
	}
	return nil
}

func GetInfluencerByUserTx(tx *bolt.Tx, cfg *config.Config, userId string) *Influencer {
	id := string(misc.GetBucket(tx, cfg.Bucket.InfUsr).Get([]byte(userId)))
	if id == "" {
		return nil
	}
	return GetInfluencerTx(tx, cfg, id)
}

func SaveInfluencerTx(tx *bolt.Tx, cfg *config.Config, inf *Influencer) error {
	if err := misc.PutBucketBytes(tx, cfg.Bucket.InfUsr, inf.UserId, []byte(inf.Id)); err != nil {
		return err
	}
	return misc.PutTxJson(tx, cfg.Bucket.Influencer, inf.Id, inf)
}
