package shop

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"Storefront/internal/notify"
)

const flashCookie = "storefront_flash"

// setFlash carries notices across a post/redirect/get round trip.
func setFlash(w http.ResponseWriter, notices []notify.Notice) {
	if len(notices) == 0 {
		return
	}
	b, err := json.Marshal(notices)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlash reads and clears pending notices.
func takeFlash(w http.ResponseWriter, r *http.Request) []notify.Notice {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})

	b, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var out []notify.Notice
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}
