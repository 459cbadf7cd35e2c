package auth

type Scope string

const (
	AllScopes Scope = `*` // special catch-all case for matching

	InvalidScope    Scope = ""
	AdminScope      Scope = `admin`
	SponsorScope    Scope = `sponsor`
	InfluencerScope Scope = `influencer`
)

func (s Scope) IsOneOf(os ...Scope) bool {
	for _, o := range os {
		if s == o {
			return true
		}
	}
	return false
}

func (s Scope) Valid() bool {
	switch s {
	case AdminScope, SponsorScope, InfluencerScope:
		return true
	}
	return false
}

// ConflictsWith enforces the admin exclusivity rule: an admin cannot also
// be a sponsor or influencer, and vice versa. This is a business rule, not
// referential integrity.
func (s Scope) ConflictsWith(o Scope) bool {
	if s == o {
		return false
	}
	return s == AdminScope || o == AdminScope
}

type ScopeMap map[Scope]struct{ Get, Put, Post, Delete bool }

func (sm ScopeMap) HasAccess(scope Scope, method string) bool {
	if scope == AdminScope {
		return true
	} else if sm == nil {
		return false
	}

	var v bool
	if m, ok := sm[scope]; ok {
		switch method {
		case "HEAD", "GET":
			v = m.Get
		case "PUT":
			v = m.Put
		case "POST":
			v = m.Post
		case "DELETE":
			v = m.Delete
		}
	}
	if !v && scope != AllScopes {
		v = sm.HasAccess(AllScopes, method)
	}
	return v
}

// HasAnyAccess checks a claim set's roles against the map; anonymous
// callers (no roles) are always denied.
func (sm ScopeMap) HasAnyAccess(roles []string, method string) bool {
	for _, r := range roles {
		if sm.HasAccess(Scope(r), method) {
			return true
		}
	}
	return false
}
