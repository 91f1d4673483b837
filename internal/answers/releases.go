package answers

import (
	"sort"

	"github.com/ahrav/go-livebench/internal/domain"
)

// KnownReleases lists every benchmark release date, oldest first.
// Question files tag each question with the release that introduced it
// and, optionally, the release that retired it.
var KnownReleases = []string{
	"2024-06-24",
	"2024-07-26",
	"2024-08-31",
	"2024-11-25",
	"2025-04-02",
}

// LatestRelease returns the newest known release date.
func LatestRelease() string { return KnownReleases[len(KnownReleases)-1] }

// ReleaseSet is the set of release dates admitted for a run: every
// known release up to and including the selected one.
type ReleaseSet map[string]bool

// ResolveRelease validates a release identifier and returns the set of
// releases it admits. An unrecognized identifier is a fatal
// configuration error.
func ResolveRelease(release string) (ReleaseSet, error) {
	known := false
	for _, r := range KnownReleases {
		if r == release {
			known = true
			break
		}
	}
	if !known {
		return nil, domain.NewConfigurationError("release", "bad release "+release)
	}

	set := make(ReleaseSet)
	for _, r := range KnownReleases {
		if r <= release {
			set[r] = true
		}
	}
	return set, nil
}

// Admits reports whether a question belongs to the run for the selected
// release: its release date must be in the set and it must not have
// been removed by the selected release.
func (s ReleaseSet) Admits(q domain.Question, release string) bool {
	if !s[q.LiveBenchReleaseDate] {
		return false
	}
	if q.LiveBenchRemovalDate != "" && q.LiveBenchRemovalDate <= release {
		return false
	}
	return true
}

// Sorted returns the admitted release dates in ascending order.
func (s ReleaseSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
