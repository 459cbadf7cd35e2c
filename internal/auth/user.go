package auth

import (
	"regexp"
	"strings"
	"time"

	"github.com/boltdb/bolt"
	"github.com/google/uuid"
	"github.com/sponsorly/sponsorly/internal/common"
	"github.com/sponsorly/sponsorly/misc"
)

const AdminUserId = "1"

type Login struct {
	UserId   string `json:"userId"`
	Password string `json:"password"`
}

type User struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`

	// Subject is the stable token subject, so username/email changes never
	// invalidate issued tokens.
	Subject string `json:"subject"`

	Flagged    bool   `json:"flagged,omitempty"`
	FlagReason string `json:"flagReason,omitempty"`

	CreatedAt int64 `json:"createdAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty"`

	Deletion common.Deletion `json:"deletion,omitempty"`
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func LooksLikeEmail(identifier string) bool {
	return strings.Contains(identifier, "@") && emailRe.MatchString(identifier)
}

func (u *User) Check(newUser bool) error {
	if newUser && len(u.Id) != 0 {
		return ErrInvalidUserID
	}
	if len(u.Username) < 3 || LooksLikeEmail(u.Username) {
		return ErrInvalidName
	}
	if !LooksLikeEmail(u.Email) {
		return ErrInvalidEmail
	}
	return nil
}

// Active reports whether the account can authenticate.
func (u *User) Active() bool {
	return !u.Flagged && u.Deletion.Active()
}

func (u *User) Store(a *Auth, tx *bolt.Tx) error {
	return misc.PutTxJson(tx, a.cfg.Bucket.User, u.Id, u)
}

func (a *Auth) CreateUserTx(tx *bolt.Tx, u *User, password string) (err error) {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = misc.TrimEmail(u.Email)

	if err = u.Check(true); err != nil {
		return
	}
	if len(password) < 8 {
		return ErrShortPass
	}
	if misc.GetBucket(tx, a.cfg.Bucket.Login).Get([]byte(u.Email)) != nil {
		return ErrEmailExists
	}
	if misc.GetBucket(tx, a.cfg.Bucket.Username).Get([]byte(u.Username)) != nil {
		return ErrUsernameExists
	}

	u.CreatedAt = time.Now().UnixNano()
	u.UpdatedAt = u.CreatedAt
	u.Subject = uuid.NewString()

	if password, err = HashPassword(password); err != nil {
		return
	}
	if u.Id, err = misc.GetNextIndex(tx, a.cfg.Bucket.User); err != nil {
		return
	}
	if err = u.Store(a, tx); err != nil {
		return
	}

	// logins are always keyed by lowercase email
	login := &Login{UserId: u.Id, Password: password}
	if err = misc.PutTxJson(tx, a.cfg.Bucket.Login, u.Email, login); err != nil {
		return
	}
	if err = misc.PutBucketBytes(tx, a.cfg.Bucket.Username, u.Username, []byte(u.Id)); err != nil {
		return
	}
	return misc.PutBucketBytes(tx, a.cfg.Bucket.Subject, u.Subject, []byte(u.Id))
}

// UpdateIdentifierTx changes the username and/or email, moving the login
// and username index entries. The token subject never changes, so tokens
// issued before the rename stay valid.
func (a *Auth) UpdateIdentifierTx(tx *bolt.Tx, userId, username, email string) (*User, error) {
	u := a.GetUserTx(tx, userId)
	if u == nil {
		return nil, ErrInvalidUserID
	}

	username, email = strings.TrimSpace(username), misc.TrimEmail(email)
	if username == "" {
		username = u.Username
	}
	if email == "" {
		email = u.Email
	}

	next := *u
	next.Username, next.Email = username, email
	if err := next.Check(false); err != nil {
		return nil, err
	}

	if email != u.Email {
		if misc.GetBucket(tx, a.cfg.Bucket.Login).Get([]byte(email)) != nil {
			return nil, ErrEmailExists
		}
		l := a.GetLoginTx(tx, u.Email)
		if l == nil {
			return nil, ErrUnexpected
		}
		if err := misc.PutTxJson(tx, a.cfg.Bucket.Login, email, l); err != nil {
			return nil, err
		}
		if err := misc.DelBucketBytes(tx, a.cfg.Bucket.Login, u.Email); err != nil {
			return nil, err
		}
	}
	if username != u.Username {
		if misc.GetBucket(tx, a.cfg.Bucket.Username).Get([]byte(username)) != nil {
			return nil, ErrUsernameExists
		}
		if err := misc.PutBucketBytes(tx, a.cfg.Bucket.Username, username, []byte(u.Id)); err != nil {
			return nil, err
		}
		if err := misc.DelBucketBytes(tx, a.cfg.Bucket.Username, u.Username); err != nil {
			return nil, err
		}
	}

	u.Username, u.Email = username, email
	u.UpdatedAt = time.Now().UnixNano()
	return u, u.Store(a, tx)
}

// ChangePasswordTx verifies the current password before replacing it, so a
// hijacked session can't silently lock the owner out.
func (a *Auth) ChangePasswordTx(tx *bolt.Tx, userId, oldPass, newPass string) error {
	u := a.GetUserTx(tx, userId)
	if u == nil {
		return ErrInvalidUserID
	}
	l := a.GetLoginTx(tx, u.Email)
	if l == nil {
		return ErrUnexpected
	}
	if !CheckPassword(l.Password, oldPass) {
		return ErrInvalidCredentials
	}
	if len(newPass) < 8 {
		return ErrShortPass
	}

	hashed, err := HashPassword(newPass)
	if err != nil {
		return err
	}
	l.Password = hashed
	u.UpdatedAt = time.Now().UnixNano()
	if err := u.Store(a, tx); err != nil {
		return err
	}
	return misc.PutTxJson(tx, a.cfg.Bucket.Login, u.Email, l)
}

func (a *Auth) GetUserTx(tx *bolt.Tx, userId string) *User {
	var u User
	if misc.GetTxJson(tx, a.cfg.Bucket.User, userId, &u) == nil && u.Id != "" {
		return &u
	}
	return nil
}

func (a *Auth) GetLoginTx(tx *bolt.Tx, email string) *Login {
	var l Login
	if misc.GetTxJson(tx, a.cfg.Bucket.Login, misc.TrimEmail(email), &l) == nil && l.UserId != "" {
		return &l
	}
	return nil
}

func (a *Auth) GetUserByEmailTx(tx *bolt.Tx, email string) *User {
	if l := a.GetLoginTx(tx, email); l != nil {
		return a.GetUserTx(tx, l.UserId)
	}
	return nil
}

func (a *Auth) GetUserByUsernameTx(tx *bolt.Tx, username string) *User {
	if id := misc.GetBucket(tx, a.cfg.Bucket.Username).Get([]byte(username)); id != nil {
		return a.GetUserTx(tx, string(id))
	}
	return nil
}

func (a *Auth) GetUserBySubjectTx(tx *bolt.Tx, subject string) *User {
	if id := misc.GetBucket(tx, a.cfg.Bucket.Subject).Get([]byte(subject)); id != nil {
		return a.GetUserTx(tx, string(id))
	}
	return nil
}

// FlagUserTx marks an account as moderated; flagged users cannot sign in.
func (a *Auth) FlagUserTx(tx *bolt.Tx, userId, reason string) error {
	u := a.GetUserTx(tx, userId)
	if u == nil {
		return ErrInvalidUserID
	}
	u.Flagged, u.FlagReason = true, reason
	u.UpdatedAt = time.Now().UnixNano()
	return u.Store(a, tx)
}

func (a *Auth) UnflagUserTx(tx *bolt.Tx, userId string) error {
	u := a.GetUserTx(tx, userId)
	if u == nil {
		return ErrInvalidUserID
	}
	u.Flagged, u.FlagReason = false, ""
	u.UpdatedAt = time.Now().UnixNano()
	return u.Store(a, tx)
}

// DelUserTx soft-deletes; the row stays addressable for audit and restore.
func (a *Auth) DelUserTx(tx *bolt.Tx, userId string) error {
	u := a.GetUserTx(tx, userId)
	if u == nil {
		return ErrInvalidUserID
	}
	if err := u.Deletion.Delete(time.Now().UnixNano()); err != nil {
		return err
	}
	return u.Store(a, tx)
}

func (a *Auth) RestoreUserTx(tx *bolt.Tx, userId string) error {
	u := a.GetUserTx(tx, userId)
	if u == nil {
		return ErrInvalidUserID
	}
	if err := u.Deletion.Restore(time.Now().UnixNano()); err != nil {
		return err
	}
	return u.Store(a, tx)
}

// SeedTx creates the fixed role set and the default administrator. Safe to
// run on every boot.
func (a *Auth) SeedTx(tx *bolt.Tx) error {
	if err := misc.InitIndex(tx, a.cfg.Bucket.User, 1); err != nil {
		return err
	}
	if err := a.SeedRolesTx(tx); err != nil {
		return err
	}
	if a.GetUserTx(tx, AdminUserId) != nil {
		return nil
	}
	pass := a.cfg.AdminPass
	if pass == "" {
		pass = "change-me-now"
	}
	admin := &User{Username: "admin", Email: a.cfg.AdminEmail}
	if err := a.CreateUserTx(tx, admin, pass); err != nil {
		return err
	}
	return a.AssignRoleTx(tx, admin.Id, string(AdminScope))
}
