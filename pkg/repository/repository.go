// Package repository describes remote artifact repositories and merges the
// two prioritized lists a run resolves against.
//
// # Descriptors
//
// A [Descriptor] is the uniform, normalized shape used for resolution: an id,
// a base URL, a layout and one [Policy] per release and snapshot channel.
// Descriptors are immutable once merged.
//
// # Merging
//
// [Merge] is an explicit two-phase ordered merge:
//
//  1. The repositories already scoped to the current build step are copied
//     as-is, in order.
//  2. The repositories declared by the project are normalized with
//     [Normalize] and appended, in order.
//
// No deduplication is performed: two entries with the same id coming from
// different sources both survive, first-phase entries first.
package repository

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layout identifiers.
const (
	LayoutDefault = "default"
	LayoutLegacy  = "legacy"
)

// Update policies decide when a locally cached SNAPSHOT is fetched again.
const (
	UpdateAlways   = "always"
	UpdateDaily    = "daily"
	UpdateNever    = "never"
	updateInterval = "interval:"
)

// Checksum policies decide what happens when a downloaded file does not
// match its published checksum.
const (
	ChecksumFail   = "fail"
	ChecksumWarn   = "warn"
	ChecksumIgnore = "ignore"
)

// Central is Maven Central, implicitly available to every build step.
var Central = Descriptor{
	ID:        "central",
	URL:       "https://repo.maven.apache.org/maven2",
	Layout:    LayoutDefault,
	Releases:  Policy{Enabled: true, UpdatePolicy: UpdateDaily, ChecksumPolicy: ChecksumWarn},
	Snapshots: Policy{Enabled: false, UpdatePolicy: UpdateDaily, ChecksumPolicy: ChecksumWarn},
}

// Policy controls how one channel (releases or snapshots) of a repository
// is used.
type Policy struct {
	Enabled        bool   `json:"enabled" toml:"enabled"`
	UpdatePolicy   string `json:"update_policy" toml:"update_policy"`
	ChecksumPolicy string `json:"checksum_policy" toml:"checksum_policy"`
}

// DefaultPolicy is applied to a channel the project leaves unspecified.
var DefaultPolicy = Policy{Enabled: true, UpdatePolicy: UpdateDaily, ChecksumPolicy: ChecksumWarn}

// UpdateDue reports whether a local copy last modified at mod must be
// refreshed under this policy at time now.
func (p Policy) UpdateDue(mod, now time.Time) bool {
	switch {
	case p.UpdatePolicy == UpdateAlways:
		return true
	case p.UpdatePolicy == UpdateNever:
		return false
	case strings.HasPrefix(p.UpdatePolicy, updateInterval):
		minutes, err := strconv.Atoi(strings.TrimPrefix(p.UpdatePolicy, updateInterval))
		if err != nil || minutes < 0 {
			return now.Sub(mod) >= 24*time.Hour
		}
		return now.Sub(mod) >= time.Duration(minutes)*time.Minute
	default:
		y1, m1, d1 := mod.Date()
		y2, m2, d2 := now.Date()
		return y1 != y2 || m1 != m2 || d1 != d2
	}
}

// Descriptor is a normalized remote repository.
type Descriptor struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Layout    string `json:"layout"`
	Releases  Policy `json:"releases"`
	Snapshots Policy `json:"snapshots"`
}

// PolicyFor returns the channel policy that applies to a version.
func (d Descriptor) PolicyFor(snapshot bool) Policy {
	if snapshot {
		return d.Snapshots
	}
	return d.Releases
}

// String returns "id (url)".
func (d Descriptor) String() string {
	return fmt.Sprintf("%s (%s)", d.ID, d.URL)
}

// RawPolicy is a channel policy as declared by a project. Every field may be
// left unset.
type RawPolicy struct {
	Enabled        string // "true", "false" or "" (enabled)
	UpdatePolicy   string
	ChecksumPolicy string
}

// Raw is a repository as declared by a project, before normalization.
// A nil policy means the channel was not declared at all.
type Raw struct {
	ID        string
	Name      string
	URL       string
	Layout    string
	Releases  *RawPolicy
	Snapshots *RawPolicy
}

// Normalize converts a project-declared repository into a [Descriptor].
// Unset fields fall back to [DefaultPolicy] and the default layout.
func Normalize(r Raw) Descriptor {
	layout := strings.TrimSpace(r.Layout)
	if layout == "" {
		layout = LayoutDefault
	}
	return Descriptor{
		ID:        strings.TrimSpace(r.ID),
		URL:       strings.TrimRight(strings.TrimSpace(r.URL), "/"),
		Layout:    layout,
		Releases:  normalizePolicy(r.Releases),
		Snapshots: normalizePolicy(r.Snapshots),
	}
}

func normalizePolicy(p *RawPolicy) Policy {
	if p == nil {
		return DefaultPolicy
	}
	out := DefaultPolicy
	if v := strings.TrimSpace(p.Enabled); v != "" {
		out.Enabled = !strings.EqualFold(v, "false")
	}
	if v := strings.TrimSpace(p.UpdatePolicy); v != "" {
		out.UpdatePolicy = strings.ToLower(v)
	}
	if v := strings.TrimSpace(p.ChecksumPolicy); v != "" {
		out.ChecksumPolicy = strings.ToLower(v)
	}
	return out
}
