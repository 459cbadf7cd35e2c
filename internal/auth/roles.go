package auth

import (
	"encoding/json"

	"github.com/boltdb/bolt"
	"github.com/sponsorly/sponsorly/misc"
)

type Role struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

var seedRoles = []Role{
	{string(AdminScope), "platform administrator and moderator"},
	{string(SponsorScope), "advertiser running campaigns"},
	{string(InfluencerScope), "creator taking ad requests"},
}

func (a *Auth) SeedRolesTx(tx *bolt.Tx) error {
	for _, r := range seedRoles {
		if misc.GetBucket(tx, a.cfg.Bucket.Role).Get([]byte(r.Name)) != nil {
			continue
		}
		if err := misc.PutTxJson(tx, a.cfg.Bucket.Role, r.Name, &r); err != nil {
			return err
		}
	}
	return nil
}

func (a *Auth) GetRoleTx(tx *bolt.Tx, name string) *Role {
	var r Role
	if misc.GetTxJson(tx, a.cfg.Bucket.Role, name, &r) == nil && r.Name != "" {
		return &r
	}
	return nil
}

// RolesOfTx reads the authoritative membership list for a user.
func (a *Auth) RolesOfTx(tx *bolt.Tx, userId string) []string {
	var roles []string
	b := misc.GetBucket(tx, a.cfg.Bucket.UserRole).Get([]byte(userId))
	if len(b) == 0 {
		return nil
	}
	if json.Unmarshal(b, &roles) != nil {
		return nil
	}
	return roles
}

// RolesOf serves the role-name projection through the cache; a briefly
// stale read only affects authorization, never the budget invariant.
func (a *Auth) RolesOf(userId string) []string {
	if roles, ok := a.cache.Get(userId); ok {
		return roles
	}
	var roles []string
	a.db.View(func(tx *bolt.Tx) error {
		roles = a.RolesOfTx(tx, userId)
		return nil
	})
	a.cache.Set(userId, roles, a.cfg.RoleCacheAge())
	return roles
}

// InvalidateRoles drops the cached projection for a user. Callers invoke it
// after the transaction that changed the membership commits; invalidating
// inside the transaction would let a concurrent RolesOf re-cache the
// pre-commit list for a full TTL.
func (a *Auth) InvalidateRoles(userId string) {
	a.cache.Invalidate(userId)
}

// AssignRoleTx appends a role to the user, enforcing the admin exclusivity
// rule. The cached projection is the caller's to invalidate once the
// transaction commits.
func (a *Auth) AssignRoleTx(tx *bolt.Tx, userId, roleName string) error {
	if a.GetUserTx(tx, userId) == nil {
		return ErrInvalidUserID
	}
	if a.GetRoleTx(tx, roleName) == nil {
		return ErrRoleNotFound
	}

	held := a.RolesOfTx(tx, userId)
	for _, h := range held {
		if h == roleName {
			return nil // already held
		}
		if Scope(h).ConflictsWith(Scope(roleName)) {
			return ErrRoleConflict
		}
	}

	held = append(held, roleName)
	return misc.PutTxJson(tx, a.cfg.Bucket.UserRole, userId, held)
}

func (a *Auth) HasRoleTx(tx *bolt.Tx, userId string, scope Scope) bool {
	return misc.StringsIndexOf(a.RolesOfTx(tx, userId), string(scope)) > -1
}
