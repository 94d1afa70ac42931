package identity

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/config"
)

var (
	ErrUnknownPrefix = errors.New("identity: unknown site prefix")
	ErrUnknownUID    = errors.New("identity: no account matches uid")
)

const (
	uidLength       = 32
	persistentLabel = "buffalo-persistent-token"
)

// AccountDirectory answers username lookups against the account store.
// FindUsername returns the canonical spelling of a username, matching
// exactly first and case-insensitively second.
type AccountDirectory interface {
	FindUsername(ctx context.Context, name string) (string, bool, error)
	Usernames(ctx context.Context) ([]string, error)
}

type Codec struct {
	sites *config.Registry
	dir   AccountDirectory
}

func NewCodec(sites *config.Registry, dir AccountDirectory) *Codec {
	return &Codec{sites: sites, dir: dir}
}

// EncodeUID builds the 32-character identifier the provider sees:
// prefix(3) + base64url(username) + md5 padding. Usernames too long to
// leave at least 10 padding characters collapse to a bare digest.
func EncodeUID(username string, site *config.Site) string {
	encoded := base64.RawURLEncoding.EncodeToString([]byte(username))
	remaining := uidLength - len(site.Prefix)
	hash := md5.Sum([]byte(username + site.SiteURL))
	digest := hex.EncodeToString(hash[:])
	if len(encoded) > remaining-10 {
		return site.Prefix + digest[:remaining]
	}
	return site.Prefix + encoded + digest[:remaining-len(encoded)]
}

// Token returns the persistent credential for a username at a site.
// It is deterministic and never expires.
func Token(username string, site *config.Site) string {
	sum := sha256.Sum256([]byte(username + site.SiteURL + persistentLabel))
	return hex.EncodeToString(sum[:])
}

// SessionToken is the volatile variant handed out at login time.
func SessionToken(uid string, site *config.Site) string {
	sum := sha256.Sum256([]byte(uid + site.SiteURL + strconv.FormatInt(time.Now().Unix(), 10)))
	return hex.EncodeToString(sum[:])
}

func (c *Codec) Encode(username, prefix string) (string, error) {
	site, ok := c.sites.Lookup(prefix)
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownPrefix, prefix)
	}
	return EncodeUID(username, site), nil
}

// Decode recovers the username embedded in a uid. It peels candidate
// base64 segments from longest to shortest and accepts the first one
// that names a known account; failing that it re-encodes every known
// username and compares, which covers the digest-only fallback form.
func (c *Codec) Decode(ctx context.Context, uid string) (string, error) {
	prefix := config.ResolvePrefix(uid)
	site, ok := c.sites.Lookup(prefix)
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownPrefix, prefix)
	}
	payload := uid[len(prefix):]

	for l := len(payload); l >= 4; l-- {
		candidate := payload[:l]
		if pad := (4 - len(candidate)%4) % 4; pad > 0 {
			candidate += "===="[:pad]
		}
		decoded, err := base64.URLEncoding.DecodeString(candidate)
		if err != nil || len(decoded) == 0 || !printable(decoded) {
			continue
		}
		canonical, found, err := c.dir.FindUsername(ctx, string(decoded))
		if err != nil {
			return "", fmt.Errorf("identity: account lookup: %w", err)
		}
		if found {
			return canonical, nil
		}
	}

	// Digest-form uids carry no reversible payload, so compare against
	// every account the site could have produced the uid for.
	names, err := c.dir.Usernames(ctx)
	if err != nil {
		return "", fmt.Errorf("identity: account scan: %w", err)
	}
	for _, name := range names {
		if EncodeUID(name, site) == uid {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownUID, uid)
}

// VerifyToken decodes the uid and checks the presented token against
// the recomputed persistent token in constant time.
func (c *Codec) VerifyToken(ctx context.Context, uid, token string) (string, bool, error) {
	prefix := config.ResolvePrefix(uid)
	site, ok := c.sites.Lookup(prefix)
	if !ok {
		return "", false, nil
	}
	username, err := c.Decode(ctx, uid)
	if errors.Is(err, ErrUnknownPrefix) || errors.Is(err, ErrUnknownUID) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	expected := Token(username, site)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(token)) != 1 {
		return username, false, nil
	}
	return username, true, nil
}

func printable(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}
