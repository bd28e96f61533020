// internal/app/topicfeed/merge.go
package topicfeed

import (
	"sort"

	"github.com/dalemusser/topichub/internal/domain/models"
)

// Merge combines the snapshots of the three role-scoped queries (owner ==,
// readers contains, writers contains) into one deduplicated, role-annotated
// listing.
//
// Precedence per topic id: owner wins and forces the writer and reader flags
// off; otherwise presence in the writer snapshot wins over the reader
// snapshot. Every topic in the output carries exactly one true flag. The
// owner-and-writer case cannot occur by construction (owner is a single
// field disjoint from the writers set) but resolves to owner-only anyway.
//
// The output is ordered by name, then id, so a fixed snapshot triple always
// merges to the same listing.
func Merge(owned, reading, writing []models.Topic) []models.TopicView {
	byID := make(map[string]*models.TopicView, len(owned)+len(reading)+len(writing))

	add := func(t models.Topic, flags models.RoleFlags) {
		existing, ok := byID[t.ID]
		if !ok {
			byID[t.ID] = &models.TopicView{Topic: t, RoleFlags: flags}
			return
		}
		// Duplicate id across snapshots: upgrade the flags, keep precedence.
		switch {
		case existing.IsOwner:
			// Owner already wins; nothing upgrades past it.
		case flags.IsOwner:
			existing.RoleFlags = models.RoleFlags{IsOwner: true}
		case flags.IsWriter:
			existing.RoleFlags = models.RoleFlags{IsWriter: true}
		}
	}

	for _, t := range owned {
		add(t, models.RoleFlags{IsOwner: true})
	}
	for _, t := range writing {
		add(t, models.RoleFlags{IsWriter: true})
	}
	for _, t := range reading {
		add(t, models.RoleFlags{IsReader: true})
	}

	out := make([]models.TopicView, 0, len(byID))
	for _, tv := range byID {
		out = append(out, *tv)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}
