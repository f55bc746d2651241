// Package shibboleth extracts user identity attributes forwarded by the
// upstream Shibboleth SSO proxy. The service never speaks SAML itself; it
// trusts the headers the proxy injects after authenticating the user.
package shibboleth

import (
	"errors"
	"net/http"
	"os"
	"regexp"
	"strings"
)

// UserInfo carries the identity attributes we forward into REDCap. Field
// names on the wire match the REDCap project's enrollment instrument.
type UserInfo struct {
	NetID     string `json:"uw_netid"`
	FirstName string `json:"core_participant_first_name,omitempty"`
	LastName  string `json:"core_participant_last_name,omitempty"`
	Email     string `json:"core_participant_email,omitempty"`
}

// ErrInvalidNetID marks a NetID that does not match the UW NetID shape.
// Handlers render it as a 400 page and must redact the offending value
// from logs.
var ErrInvalidNetID = errors.New("invalid NetID")

// UW NetIDs: start with a letter, lowercase letters and digits, at most
// 8 characters. Scoped identities (netid@washington.edu) are normalized
// before matching.
var netIDPattern = regexp.MustCompile(`^[a-z][a-z0-9]{0,7}$`)

// ExtractUserInfo reads identity attributes from the SSO proxy headers.
// Header names follow the proxy's attribute map (uid, givenName, surname,
// mail).
func ExtractUserInfo(h http.Header) UserInfo {
	return UserInfo{
		NetID:     NormalizeNetID(h.Get("Uid")),
		FirstName: h.Get("Givenname"),
		LastName:  h.Get("Surname"),
		Email:     h.Get("Mail"),
	}
}

// RemoteUser returns the authenticated principal the proxy forwarded, or ""
// when the request is unauthenticated.
func RemoteUser(r *http.Request) string {
	return r.Header.Get("Remote-User")
}

// FromEnviron reads the same attributes from the process environment.
// Used in development, where no proxy fronts the service.
func FromEnviron() (remoteUser string, info UserInfo) {
	return os.Getenv("REMOTE_USER"), UserInfo{
		NetID:     NormalizeNetID(os.Getenv("UID")),
		FirstName: os.Getenv("GIVENNAME"),
		LastName:  os.Getenv("SURNAME"),
		Email:     os.Getenv("MAIL"),
	}
}

// NormalizeNetID lowercases a NetID and strips an @washington.edu (or any
// other) scope suffix.
func NormalizeNetID(raw string) string {
	netid := strings.ToLower(strings.TrimSpace(raw))
	if at := strings.IndexByte(netid, '@'); at >= 0 {
		netid = netid[:at]
	}
	return netid
}

// ValidateNetID returns ErrInvalidNetID unless netid matches the UW NetID
// shape.
func ValidateNetID(netid string) error {
	if !netIDPattern.MatchString(netid) {
		return ErrInvalidNetID
	}
	return nil
}
