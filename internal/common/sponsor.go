package common

import (
	"errors"
	"time"

	"github.com/boltdb/bolt"
	"github.com/sponsorly/sponsorly/config"
	"github.com/sponsorly/sponsorly/misc"
)

var (
	ErrInvalidSponsor       = errors.New("invalid or incomplete sponsor")
	ErrVerificationBackward = errors.New("verification status cannot regress")
	ErrBadVerification      = errors.New("unknown verification status")
)

// VerificationStatus is an ordered, one-directional progression driven only
// by admin action.
type VerificationStatus int

const (
	NotVerified VerificationStatus = iota
	VerificationInitiated
	Verified
)

func (v VerificationStatus) String() string {
	switch v {
	case VerificationInitiated:
		return "verification_initiated"
	case Verified:
		return "verified"
	}
	return "not_verified"
}

func (v VerificationStatus) CanAdvanceTo(n VerificationStatus) bool {
	return n > v && n <= Verified
}

func ParseVerification(s string) (VerificationStatus, error) {
	for v := NotVerified; v <= Verified; v++ {
		if v.String() == s {
			return v, nil
		}
	}
	return NotVerified, ErrBadVerification
}

type Sponsor struct {
	Id     string `json:"id"`
	UserId string `json:"userId"`

	CompanyName string `json:"companyName"`
	Industry    string `json:"industry"`
	Description string `json:"description,omitempty"`

	Verification VerificationStatus `json:"verification"`

	CreatedAt int64 `json:"createdAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty"`
}

func (sp *Sponsor) Check() error {
	if sp.UserId == "" || sp.CompanyName == "" || sp.Industry == "" {
		return ErrInvalidSponsor
	}
	return nil
}

// Advance moves the verification status forward; regressions are rejected.
func (sp *Sponsor) Advance(to VerificationStatus) error {
	if !sp.Verification.CanAdvanceTo(to) {
		return ErrVerificationBackward
	}
	sp.Verification = to
	sp.UpdatedAt = time.Now().UnixNano()
	return nil
}

func GetSponsorTx(tx *bolt.Tx, cfg *config.Config, id string) *Sponsor {
	var sp Sponsor
	if misc.GetTxJson(tx, cfg.Bucket.Sponsor, id, &sp) == nil && sp.Id != "" {
		return &sp
	}
	return nil
}

func GetSponsorByUserTx(tx *bolt.Tx, cfg *config.Config, userId string) *Sponsor {
	id := string(misc.GetBucket(tx, cfg.Bucket.SponsorUsr).Get([]byte(userId)))
	if id == "" {
		return nil
	}
	return GetSponsorTx(tx, cfg, id)
}

func SaveSponsorTx(tx *bolt.Tx, cfg *config.Config, sp *Sponsor) error {
	if err := misc.PutBucketBytes(tx, cfg.Bucket.SponsorUsr, sp.UserId, []byte(sp.Id)); err != nil {
		return err
	}
	return misc.PutTxJson(tx, cfg.Bucket.Sponsor, sp.Id, sp)
}
