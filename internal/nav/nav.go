// Package nav is the navigation layer. Redirects are the only way the
// guard or a handler signals "go elsewhere", and every redirect can
// carry query parameters for deep links. Forced redirects always name
// their reason so the destination can tell the user why; a silent
// redirect is indistinguishable from a bug.
package nav

import (
	"net/http"
	"net/url"
	"strconv"
)

// ReasonParam names the query parameter carrying why a forced redirect
// happened.
const ReasonParam = "reason"

const (
	ReasonLoginRequired = "login-required"
	ReasonExpired       = "expired"
	ReasonNoPermission  = "no-permission"
	ReasonLoggedOut     = "logged-out"
)

// BuildURL appends params to path as a query string.
func BuildURL(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}

// RedirectTo sends the browser to path with the given parameters.
func RedirectTo(w http.ResponseWriter, r *http.Request, path string, params url.Values) {
	http.Redirect(w, r, BuildURL(path, params), http.StatusSeeOther)
}

// WithReason is shorthand for a single-reason redirect.
func WithReason(reason string) url.Values {
	return url.Values{ReasonParam: []string{reason}}
}

// IntParam reads a numeric query parameter. ok is false when the
// parameter is absent or not a number.
func IntParam(r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return id, true
}

// ReasonMessage maps a redirect reason to the text shown on the entry
// page. Unknown reasons produce no message.
func ReasonMessage(reason string) string {
	switch reason {
	case ReasonLoginRequired:
		return "You must sign in to access that page."
	case ReasonExpired:
		return "Your session expired. Please sign in again."
	case ReasonNoPermission:
		return "You do not have permission to view that configuration."
	case ReasonLoggedOut:
		return "You have been signed out."
	default:
		return ""
	}
}
