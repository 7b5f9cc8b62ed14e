package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Password reset tickets are stateless: the token is an HMAC over the
// user's current state (password hash, active flag, last login) plus a
// timestamp, keyed by the server secret. Changing the password changes
// the state and silently invalidates every outstanding ticket, which is
// what gives the tickets single-use semantics without a table.

const resetMacLength = 20 // hex chars kept from the HMAC digest

// EncodeUID converts a user ID to the URL-safe form embedded in reset links.
func EncodeUID(id uint) string {
	return base64.RawURLEncoding.EncodeToString(
		[]byte(strconv.FormatUint(uint64(id), 10)))
}

// DecodeUID reverses EncodeUID.
func DecodeUID(uid string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// ResetTokenGenerator makes and checks password reset tokens of the form
// "<ts36>-<mac>", where ts36 is the issue time in minutes since epoch,
// base 36.
type ResetTokenGenerator struct {
	Secret []byte
	TTL    time.Duration

	// Now is overridable in tests; nil means time.Now.
	Now func() time.Time
}

func (g *ResetTokenGenerator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// Make issues a token bound to the user's current state.
func (g *ResetTokenGenerator) Make(u *User) string {
	ts := g.now().Unix() / 60
	return g.tokenAt(u, ts)
}

// Check verifies a token against the user's *current* state and the
// validity window. Tampering, expiry and reuse after a password change all
// fail the same way.
func (g *ResetTokenGenerator) Check(u *User, token string) bool {
	tsPart, _, ok := strings.Cut(token, "-")
	if !ok {
		return false
	}
	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil {
		return false
	}

	if !hmac.Equal([]byte(g.tokenAt(u, ts)), []byte(token)) {
		return false
	}

	age := time.Duration(g.now().Unix()/60-ts) * time.Minute
	return age >= 0 && age <= g.TTL
}

func (g *ResetTokenGenerator) tokenAt(u *User, ts int64) string {
	mac := hmac.New(sha256.New, g.Secret)

	var lastLogin string
	if u.LastLogin != nil {
		lastLogin = u.LastLogin.UTC().Format(time.RFC3339)
	}
	fmt.Fprintf(mac, "%d\x00%s\x00%t\x00%s\x00%d",
		u.ID, u.HashedPassword, u.IsActive, lastLogin, ts)

	digest := hex.EncodeToString(mac.Sum(nil))[:resetMacLength]
	return strconv.FormatInt(ts, 36) + "-" + digest
}

// ResetLinkParam joins uid and token the way reset links embed them.
func ResetLinkParam(uid, token string) string {
	return uid + "-" + token
}

// SplitResetParam splits a combined link parameter back into uid and token.
// Only the first dash separates the two; the token keeps its own dashes.
func SplitResetParam(param string) (uid, token string, err error) {
	uid, token, ok := strings.Cut(param, "-")
	if !ok || uid == "" || token == "" {
		return "", "", errors.New("malformed reset parameter")
	}
	return uid, token, nil
}
