// Package locator selects the latest published artifact among listing candidates.
package locator

import (
	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
)

// Resolve picks the candidate with the maximal publish date. Ties are broken
// by first occurrence in the input order, because portals list same-date
// entries inconsistently and the first one is the portal's own ordering.
//
// Resolve is a pure function of its input: no side effects, no network.
func Resolve(listing []healthdata.SourceDescriptor) (healthdata.SourceDescriptor, error) {
	if len(listing) == 0 {
		return healthdata.SourceDescriptor{}, healthdata.ErrNoCandidate
	}

	for _, entry := range listing {
		if entry.PublishedAt.IsZero() {
			return healthdata.SourceDescriptor{}, &healthdata.MalformedListingError{
				Entry:  entry.Filename,
				Reason: "publish date missing or unparseable",
			}
		}
	}

	best := listing[0]
	for _, entry := range listing[1:] {
		if entry.PublishedAt.After(best.PublishedAt) {
			best = entry
		}
	}
	return best, nil
}
