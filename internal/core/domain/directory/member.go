package directory

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Member is an immutable snapshot of a directory entry taken at roster fetch
// time. Email and ImageURL may be empty: a member without an email can never
// be matched by hash, and a member without an image has no directory photo.
type Member struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// EmailHash returns the lowercase hex MD5 of the member's lowercased email,
// or "" when the member carries no email.
func (m Member) EmailHash() string {
	if m.Email == "" {
		return ""
	}
	return HashEmail(m.Email)
}

// HashEmail computes the avatar hash for an email address: MD5 over the
// lowercased address, hex-encoded lowercase.
func HashEmail(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(email)))
	return hex.EncodeToString(sum[:])
}

// MatchByEmailHash scans members in order and returns the first one whose
// email hashes to hash. Members without an email are skipped. The comparison
// is case-sensitive; hashes are expected in lowercase hex.
func MatchByEmailHash(members []Member, hash string) (Member, bool) {
	for _, m := range members {
		if m.Email == "" {
			continue
		}
		if m.EmailHash() == hash {
			return m, true
		}
	}
	return Member{}, false
}
