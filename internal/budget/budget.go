// Package budget owns the campaign ledger: the remaining-budget
// computation and the invariant that active ad amounts never exceed the
// campaign budget. Every check runs inside the caller's bolt transaction;
// bolt allows one read-write transaction at a time, so a check-then-write
// against a campaign's ad set can never interleave with another.
package budget

import (
	"fmt"

	"github.com/boltdb/bolt"
	"github.com/sponsorly/sponsorly/config"
	"github.com/sponsorly/sponsorly/internal/common"
)

// ExceededError reports a rejected mutation along with the budget still
// available, which callers surface verbatim.
type ExceededError struct {
	Remaining int64
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("ad amount exceeds the remaining budget of %d", e.Remaining)
}

// SpentTx sums the committed amounts of the campaign's active ads,
// skipping soft-deleted rows and, when excludeAdId is set, the ad being
// re-validated so its prior amount isn't double counted.
func SpentTx(tx *bolt.Tx, cfg *config.Config, campaignId, excludeAdId string) (total int64) {
	common.ForEachAdTx(tx, cfg, func(ad *common.Ad) {
		if ad.CampaignId != campaignId || !ad.Deletion.Active() {
			return
		}
		if excludeAdId != "" && ad.Id == excludeAdId {
			return
		}
		total += ad.Amount
	})
	return
}

func RemainingTx(tx *bolt.Tx, cfg *config.Config, cmp *common.Campaign, excludeAdId string) int64 {
	return cmp.Budget - SpentTx(tx, cfg, cmp.Id, excludeAdId)
}

// ValidateTx accepts an amount that exactly exhausts the budget; only a
// strict overrun is rejected. The comparison subtracts rather than adds so
// a huge amount can't wrap the sum negative.
func ValidateTx(tx *bolt.Tx, cfg *config.Config, cmp *common.Campaign, amount int64, excludeAdId string) error {
	spent := SpentTx(tx, cfg, cmp.Id, excludeAdId)
	if amount > cmp.Budget-spent {
		return &ExceededError{Remaining: cmp.Budget - spent}
	}
	return nil
}
