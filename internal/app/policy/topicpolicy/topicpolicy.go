// internal/app/policy/topicpolicy/topicpolicy.go
package topicpolicy

import (
	"slices"

	"github.com/dalemusser/topichub/internal/domain/models"
)

// Flags computes the role of email relative to a topic. Precedence is
// owner > writer > reader: the owner is never additionally flagged as writer
// or reader even if the stored sets contain the owner's email, and writer
// status overrides reader status when an email appears in both sets. At most
// one flag comes back true; all three are false when the email has no role.
func Flags(t models.Topic, email string) models.RoleFlags {
	switch {
	case t.Owner == email:
		return models.RoleFlags{IsOwner: true}
	case slices.Contains(t.Writers, email):
		return models.RoleFlags{IsWriter: true}
	case slices.Contains(t.Readers, email):
		return models.RoleFlags{IsReader: true}
	default:
		return models.RoleFlags{}
	}
}

// CanRead reports whether email may see the topic at all.
func CanRead(t models.Topic, email string) bool {
	f := Flags(t, email)
	return f.IsOwner || f.IsWriter || f.IsReader
}

// CanEdit reports whether email may edit the topic or its posts:
// the stored owner or any member of the writers set.
func CanEdit(t models.Topic, email string) bool {
	f := Flags(t, email)
	return f.IsOwner || f.IsWriter
}

// CanDelete reports whether email may delete the topic. Only the stored
// owner may; writers explicitly may not.
func CanDelete(t models.Topic, email string) bool {
	return t.Owner == email
}

// CanManageMembers reports whether email may mutate the readers/writers
// lists. The upstream behavior let any authenticated user do this (strict ==
// false); the strict mode restricts it to the owner. Callers choose via
// configuration rather than this package silently deciding.
func CanManageMembers(t models.Topic, email string, strict bool) bool {
	if !strict {
		return true
	}
	return t.Owner == email
}
