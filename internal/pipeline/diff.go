// Package pipeline implements the poll-diff-batch-publish cycle: fetch
// the remote listings, detect new and status-changed records against
// local state, persist, and deliver fixed-size batches to the channel.
package pipeline

import (
	domain "github.com/gardenmarket/listing-herald/pkg/types"
)

// FindNew returns the subset of fetched whose id is not in known,
// preserving fetched's relative order. Duplicate ids inside fetched keep
// the first occurrence only.
func FindNew(fetched []domain.Listing, known map[string]struct{}) []domain.Listing {
	var out []domain.Listing
	seen := make(map[string]struct{}, len(fetched))
	for i := range fetched {
		id := fetched[i].ID
		if _, ok := known[id]; ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, fetched[i])
	}
	return out
}

// IndexByID builds an id lookup over fetched with first-seen-wins
// precedence, returning any duplicate ids encountered so the caller can
// log them.
func IndexByID(fetched []domain.Listing) (map[string]*domain.Listing, []string) {
	index := make(map[string]*domain.Listing, len(fetched))
	var dups []string
	for i := range fetched {
		id := fetched[i].ID
		if _, ok := index[id]; ok {
			dups = append(dups, id)
			continue
		}
		index[id] = &fetched[i]
	}
	return index, dups
}

// FindStatusChanges compares every tracked delivered listing against the
// freshly fetched set and reports those whose status differs. Tracked
// listings absent from the fetch are left untouched.
func FindStatusChanges(index map[string]*domain.Listing, tracked []domain.TrackedListing) []domain.StatusChange {
	var changes []domain.StatusChange
	for i := range tracked {
		current, ok := index[tracked[i].Listing.ID]
		if !ok {
			continue
		}
		if current.Status != tracked[i].Listing.Status {
			changes = append(changes, domain.StatusChange{
				ListingID: tracked[i].Listing.ID,
				Old:       tracked[i].Listing.Status,
				New:       current.Status,
			})
		}
	}
	return changes
}
