// Package update compares the running version with the published release
// metadata.
package update

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"

	"github.com/san-kum/neurospin/internal/remote"
)

// Version is the running application version.
const Version = "1.0.0"

// Metadata is the published release document.
type Metadata struct {
	Version      string `json:"version"`
	DownloadURL  string `json:"downloadUrl"`
	ReleaseNotes string `json:"releaseNotes"`
	ForceUpdate  bool   `json:"forceUpdate"`
}

type Info struct {
	HasUpdate     bool
	LatestVersion string
	DownloadURL   string
	ReleaseNotes  string
	Force         bool
}

type Checker struct {
	url    string
	client *remote.Client
	log    zerolog.Logger
}

func NewChecker(url string, timeout time.Duration, log zerolog.Logger) *Checker {
	return &Checker{url: url, client: remote.New(timeout, "neurospin-update"), log: log}
}

// Check reports whether a newer release is published. Any failure is
// treated as no update.
func (c *Checker) Check(ctx context.Context, current string) Info {
	none := Info{LatestVersion: current}

	var meta Metadata
	if err := c.client.GetJSON(ctx, c.url, &meta); err != nil {
		c.log.Warn().Err(err).Msg("update check failed")
		return none
	}
	if !IsNewerVersion(current, meta.Version) {
		c.log.Debug().Str("remote", meta.Version).Msg("up to date")
		return none
	}
	return Info{
		HasUpdate:     true,
		LatestVersion: meta.Version,
		DownloadURL:   meta.DownloadURL,
		ReleaseNotes:  meta.ReleaseNotes,
		Force:         meta.ForceUpdate,
	}
}

// IsNewerVersion reports whether next is strictly newer than current. Dot
// separated fields are compared numerically with missing fields as 0.
// Pre-release and build suffixes are ignored, so 1.0.0-rc1 and 1.0.0 are
// the same release.
func IsNewerVersion(current, next string) bool {
	return newerFields(core(current), core(next))
}

// core reduces a semantic version to major.minor.patch. Anything semver
// cannot parse is split as is.
func core(v string) []int {
	sv, err := semver.NewVersion(strings.TrimSpace(v))
	if err != nil {
		return fields(v)
	}
	return []int{int(sv.Major()), int(sv.Minor()), int(sv.Patch())}
}

func newerFields(a, b []int) bool {
	for i := 0; i < max(len(a), len(b)); i++ {
		var o, n int
		if i < len(a) {
			o = a[i]
		}
		if i < len(b) {
			n = b[i]
		}
		if n > o {
			return true
		}
		if n < o {
			return false
		}
	}
	return false
}

// fields splits a version into numbers; unparsable parts count as 0.
func fields(v string) []int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err == nil {
			out[i] = n
		}
	}
	return out
}
