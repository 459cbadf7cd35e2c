package ads

import (
	"errors"
	"sync"
	"testing"

	"github.com/boltdb/bolt"
	"github.com/sponsorly/sponsorly/config"
	"github.com/sponsorly/sponsorly/internal/budget"
	"github.com/sponsorly/sponsorly/internal/common"
	"github.com/sponsorly/sponsorly/misc"
)

var (
	sponsor    = Actor{UserId: "10", SponsorId: "1"}
	rival      = Actor{UserId: "11", SponsorId: "2"}
	influencer = Actor{UserId: "12", InfluencerId: "1"}
	stranger   = Actor{UserId: "13", InfluencerId: "2"}
	admin      = Actor{UserId: "1", Admin: true}
)

// testDB boots a throwaway store with one campaign (budget 1000) owned by
// sponsor 1 and one influencer.
func testDB(t *testing.T) (*bolt.DB, *config.Config) {
	t.Helper()
	cfg := config.Sandboxed()
	db := misc.OpenDB(t.TempDir()+"/", "ads-test")
	if err := misc.InitBuckets(db, cfg.AllBuckets()...); err != nil {
		t.Fatal(err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if err := misc.InitIndex(tx, cfg.Bucket.Ads, 1); err != nil {
			return err
		}
		if err := common.SaveInfluencerTx(tx, cfg, &common.Influencer{Id: "1", UserId: "12", Category: "Gaming"}); err != nil {
			return err
		}
		if err := common.SaveInfluencerTx(tx, cfg, &common.Influencer{Id: "2", UserId: "13", Category: "Food"}); err != nil {
			return err
		}
		return common.SaveCampaignTx(tx, cfg, &common.Campaign{
			Id: "1", SponsorId: "1", Name: "Launch", Description: "x",
			Budget: 1000, Status: common.CampaignActive, Niche: "Gaming",
			Visibility: common.VisibilityPublic,
		})
	}); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db, cfg
}

func create(t *testing.T, db *bolt.DB, cfg *config.Config, actor Actor, amount int64) (*common.Ad, error) {
	t.Helper()
	var ad *common.Ad
	err := db.Update(func(tx *bolt.Tx) (err error) {
		ad, err = CreateTx(tx, cfg, actor, "1", "1", amount, "two posts")
		return
	})
	return ad, err
}

func TestCreateExhaustsBudget(t *testing.T) {
	db, cfg := testDB(t)

	ad, err := create(t, db, cfg, sponsor, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if ad.Status != common.AdPending || ad.Amount != 1000 {
		t.Fatalf("unexpected ad: %+v", ad)
	}

	db.View(func(tx *bolt.Tx) error {
		cmp := common.GetCampaignTx(tx, cfg, "1")
		if got := budget.RemainingTx(tx, cfg, cmp, ""); got != 0 {
			t.Errorf("remaining: got %d, want 0", got)
		}
		return nil
	})

	_, err = create(t, db, cfg, sponsor, 1)
	var exceeded *budget.ExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("got %v, want *budget.ExceededError", err)
	}
	if exceeded.Remaining != 0 {
		t.Errorf("error should cite remaining 0, got %d", exceeded.Remaining)
	}
}

func TestCreateChecks(t *testing.T) {
	db, cfg := testDB(t)

	if _, err := create(t, db, cfg, rival, 100); err != ErrForbidden {
		t.Errorf("rival sponsor: got %v, want %v", err, ErrForbidden)
	}
	if _, err := create(t, db, cfg, sponsor, 0); err != ErrInvalidAmount {
		t.Errorf("zero amount: got %v, want %v", err, ErrInvalidAmount)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := CreateTx(tx, cfg, sponsor, "1", "1", 100, "")
		return err
	}); err != ErrMissingRequirement {
		t.Errorf("no requirement: got %v, want %v", err, ErrMissingRequirement)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := CreateTx(tx, cfg, sponsor, "1", "404", 100, "x")
		return err
	}); err != ErrInfluencerNotFound {
		t.Errorf("unknown influencer: got %v, want %v", err, ErrInfluencerNotFound)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := CreateTx(tx, cfg, sponsor, "404", "1", 100, "x")
		return err
	}); err != ErrCampaignNotFound {
		t.Errorf("unknown campaign: got %v, want %v", err, ErrCampaignNotFound)
	}
}

func TestCreateAgainstDeletedCampaign(t *testing.T) {
	db, cfg := testDB(t)

	if err := db.Update(func(tx *bolt.Tx) error {
		cmp := common.GetCampaignTx(tx, cfg, "1")
		cmp.Deletion.Delete(1)
		return common.SaveCampaignTx(tx, cfg, cmp)
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := create(t, db, cfg, sponsor, 100); err != ErrCampaignNotFound {
		t.Fatalf("got %v, want %v", err, ErrCampaignNotFound)
	}
}

func TestUpdateExclusion(t *testing.T) {
	db, cfg := testDB(t)

	ad, err := create(t, db, cfg, sponsor, 600)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = create(t, db, cfg, sponsor, 300); err != nil {
		t.Fatal(err)
	}

	// raising 600 -> 700 must ignore the ad's own prior amount
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := UpdateTx(tx, cfg, sponsor, ad.Id, 700, "")
		return err
	}); err != nil {
		t.Fatal("exclusion should allow 700 + 300 <= 1000:", err)
	}

	// 701 + 300 overruns
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := UpdateTx(tx, cfg, sponsor, ad.Id, 701, "")
		return err
	})
	var exceeded *budget.ExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("got %v, want *budget.ExceededError", err)
	}
	if exceeded.Remaining != 700 {
		t.Errorf("remaining should exclude the ad itself: got %d, want 700", exceeded.Remaining)
	}

	// amount unchanged after the failed update
	db.View(func(tx *bolt.Tx) error {
		if got := common.GetAdTx(tx, cfg, ad.Id).Amount; got != 700 {
			t.Errorf("amount after failed update: got %d, want 700", got)
		}
		return nil
	})

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := UpdateTx(tx, cfg, influencer, ad.Id, 100, "")
		return err
	}); err != ErrForbidden {
		t.Errorf("influencer updating the ask: got %v, want %v", err, ErrForbidden)
	}
}

func TestNegotiationFlow(t *testing.T) {
	db, cfg := testDB(t)

	ad, err := create(t, db, cfg, sponsor, 200)
	if err != nil {
		t.Fatal(err)
	}

	// counter-offer by the influencer party
	if err := db.Update(func(tx *bolt.Tx) error {
		ad, err = NegotiateTx(tx, cfg, influencer, ad.Id, 500, "I charge more")
		return err
	}); err != nil {
		t.Fatal(err)
	}
	if ad.Status != common.AdNegotiation || ad.NegotiationAmount != 500 || ad.Amount != 200 {
		t.Fatalf("committed amount must not move on negotiate: %+v", ad)
	}
	if len(ad.Messages) != 1 {
		t.Fatalf("message not recorded: %+v", ad.Messages)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := NegotiateTx(tx, cfg, stranger, ad.Id, 400, "")
		return err
	}); err != ErrForbidden {
		t.Errorf("stranger negotiating: got %v, want %v", err, ErrForbidden)
	}

	// accept promotes the counter-offer
	if err := db.Update(func(tx *bolt.Tx) error {
		ad, err = AcceptNegotiationTx(tx, cfg, sponsor, ad.Id)
		return err
	}); err != nil {
		t.Fatal(err)
	}
	if ad.Status != common.AdAccepted || ad.Amount != 500 || ad.NegotiationAmount != 0 {
		t.Fatalf("accept should commit the counter-offer: %+v", ad)
	}
}

func TestAcceptWithoutNegotiation(t *testing.T) {
	db, cfg := testDB(t)

	ad, err := create(t, db, cfg, sponsor, 200)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := AcceptNegotiationTx(tx, cfg, sponsor, ad.Id)
		return err
	}); err != ErrNoNegotiationPending {
		t.Fatalf("got %v, want %v", err, ErrNoNegotiationPending)
	}
}

func TestAcceptOverBudgetKeepsNegotiation(t *testing.T) {
	db, cfg := testDB(t)

	ad, err := create(t, db, cfg, sponsor, 200)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = create(t, db, cfg, sponsor, 700); err != nil {
		t.Fatal(err)
	}

	// 800 + 700 > 1000, so the accept must fail and change nothing
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := NegotiateTx(tx, cfg, influencer, ad.Id, 800, "")
		return err
	}); err != nil {
		t.Fatal(err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := AcceptNegotiationTx(tx, cfg, sponsor, ad.Id)
		return err
	})
	var exceeded *budget.ExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("got %v, want *budget.ExceededError", err)
	}

	db.View(func(tx *bolt.Tx) error {
		got := common.GetAdTx(tx, cfg, ad.Id)
		if got.Status != common.AdNegotiation || got.Amount != 200 || got.NegotiationAmount != 800 {
			t.Fatalf("failed accept must leave the ad untouched: %+v", got)
		}
		return nil
	})
}

func TestSetStatus(t *testing.T) {
	db, cfg := testDB(t)

	ad, err := create(t, db, cfg, sponsor, 200)
	if err != nil {
		t.Fatal(err)
	}

	id := ad.Id
	set := func(actor Actor, target common.AdStatus) error {
		return db.Update(func(tx *bolt.Tx) (err error) {
			_, err = SetStatusTx(tx, cfg, actor, id, target)
			return
		})
	}

	if err := set(sponsor, "Bogus"); err != common.ErrBadAdStatus {
		t.Errorf("bogus target: got %v, want %v", err, common.ErrBadAdStatus)
	}
	if err := set(sponsor, common.AdCompleted); err != ErrInvalidTransition {
		t.Errorf("Pending -> Completed: got %v, want %v", err, ErrInvalidTransition)
	}
	if err := set(influencer, common.AdAccepted); err != nil {
		t.Fatal(err)
	}
	if err := set(sponsor, common.AdRejected); err != ErrInvalidTransition {
		t.Errorf("Accepted -> Rejected: got %v, want %v", err, ErrInvalidTransition)
	}
	if err := set(admin, common.AdCompleted); err != nil {
		t.Fatal("admin may complete:", err)
	}
	if err := set(sponsor, common.AdAccepted); err != ErrInvalidTransition {
		t.Errorf("Completed is terminal: got %v, want %v", err, ErrInvalidTransition)
	}
}

func TestDeleteFreesBudget(t *testing.T) {
	db, cfg := testDB(t)

	ad, err := create(t, db, cfg, sponsor, 1000)
	if err != nil {
		t.Fatal(err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		return DeleteTx(tx, cfg, rival, ad.Id)
	}); err != ErrForbidden {
		t.Errorf("rival deleting: got %v, want %v", err, ErrForbidden)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		return DeleteTx(tx, cfg, sponsor, ad.Id)
	}); err != nil {
		t.Fatal(err)
	}

	// the freed amount can be committed again; the old row stays readable
	if _, err := create(t, db, cfg, sponsor, 1000); err != nil {
		t.Fatal("soft delete should free the full budget:", err)
	}
	db.View(func(tx *bolt.Tx) error {
		if common.GetAdTx(tx, cfg, ad.Id) == nil {
			t.Error("soft-deleted ad must remain addressable")
		}
		if got := len(ByCampaignTx(tx, cfg, "1")); got != 1 {
			t.Errorf("listing should skip deleted rows: got %d ads", got)
		}
		return nil
	})

	if err := db.Update(func(tx *bolt.Tx) error {
		return DeleteTx(tx, cfg, sponsor, ad.Id)
	}); err != ErrAdNotFound {
		t.Errorf("deleted rows are invisible to mutation: got %v, want %v", err, ErrAdNotFound)
	}
}

// Two concurrent creates whose combined amounts overrun the budget: bolt
// serializes read-write transactions, so exactly one commits.
func TestConcurrentCreates(t *testing.T) {
	db, cfg := testDB(t)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = create(t, db, cfg, sponsor, 600)
		}(i)
	}
	wg.Wait()

	var failed int
	var exceeded *budget.ExceededError
	for _, err := range errs {
		if err != nil {
			if !errors.As(err, &exceeded) {
				t.Fatalf("unexpected error: %v", err)
			}
			failed++
		}
	}
	if failed != 1 {
		t.Fatalf("want exactly one loser, got %d", failed)
	}

	db.View(func(tx *bolt.Tx) error {
		if got := budget.SpentTx(tx, cfg, "1", ""); got != 600 {
			t.Errorf("spent after race: got %d, want 600", got)
		}
		return nil
	})
}
