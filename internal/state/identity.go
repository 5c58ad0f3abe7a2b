package state

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strings"
)

// Identity is the stable key under which a project's state is stored.
type Identity string

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
	scpLike     = regexp.MustCompile(`^(?:[^@/]+@)?([^:/]+):(.+)$`)
)

// IdentityFor derives the identity of a project from its origin URL. When
// origin is empty the absolute repository path is hashed instead.
func IdentityFor(origin, repoPath string) Identity {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		abs, err := filepath.Abs(repoPath)
		if err != nil {
			abs = repoPath
		}
		return Identity("path-" + shortHash(filepath.Clean(abs), 16))
	}

	norm := NormalizeOrigin(origin)
	slug := strings.Trim(unsafeChars.ReplaceAllString(norm, "_"), "_")
	if len(slug) > 80 {
		slug = slug[len(slug)-80:]
	}
	return Identity(slug + "-" + shortHash(norm, 12))
}

// NormalizeOrigin reduces the different spellings of a remote URL to
// host/path form, so https and ssh clones of one repository agree.
func NormalizeOrigin(origin string) string {
	u := strings.TrimSpace(origin)

	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
		// drop credentials
		if at := strings.LastIndex(strings.SplitN(u, "/", 2)[0], "@"); at >= 0 {
			u = u[at+1:]
		}
		// drop port
		host, rest, _ := strings.Cut(u, "/")
		if h, _, ok := strings.Cut(host, ":"); ok {
			host = h
		}
		u = strings.ToLower(host) + "/" + rest
	} else if m := scpLike.FindStringSubmatch(u); m != nil && !strings.HasPrefix(u, "/") {
		u = strings.ToLower(m[1]) + "/" + m[2]
	}

	u = strings.TrimRight(u, "/")
	u = strings.TrimSuffix(u, ".git")
	return strings.TrimRight(u, "/")
}

func shortHash(s string, n int) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:n]
}
