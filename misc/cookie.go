package misc

import (
	"net/http"
	"time"
)

// SetCookie writes an http-only cookie; pass a non-positive duration to
// expire it immediately.
func SetCookie(w http.ResponseWriter, domain, name, value string, secure bool, dur time.Duration) {
	c := &http.Cookie{
		Path:     "/",
		Domain:   domain,
		Name:     name,
		Value:    value,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if dur > 0 {
		c.MaxAge = int(dur / time.Second)
	} else {
		c.MaxAge = -1
	}
	http.SetCookie(w, c)
}

func GetCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func DeleteCookie(w http.ResponseWriter, domain, name string, secure bool) {
	SetCookie(w, domain, name, "", secure, -1)
}