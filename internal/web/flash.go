package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const flashCookie = "packd_flash"

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Level   string `json:"level"` // success, info, error
	Message string `json:"message"`
}

// AddFlash queues a message for the next page view. Messages queued earlier in
// the same response are kept.
func AddFlash(w http.ResponseWriter, r *http.Request, secure bool, level, message string) {
	flashes := readFlashes(r)
	flashes = append(flashes, Flash{Level: level, Message: message})
	raw, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	value := base64.RawURLEncoding.EncodeToString(raw)
	// later handlers in this request see the new value too
	r.AddCookie(&http.Cookie{Name: flashCookie, Value: value})
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlashes returns queued messages and clears them.
func PopFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	flashes := readFlashes(r)
	if len(flashes) == 0 {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	return flashes
}

func readFlashes(r *http.Request) []Flash {
	var value string
	// the last cookie wins when AddFlash appended one to the request
	for _, c := range r.Cookies() {
		if c.Name == flashCookie {
			value = c.Value
		}
	}
	if value == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(raw, &flashes); err != nil {
		return nil
	}
	return flashes
}
