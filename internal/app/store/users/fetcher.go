// internal/app/store/users/fetcher.go
package userstore

import (
	"context"

	"github.com/dalemusser/topichub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionUserByID satisfies auth.UserFetcher for bearer-token requests.
// Returns nil, nil when the account is gone or suspended.
func (s *Store) SessionUserByID(ctx context.Context, id string) (*auth.SessionUser, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	u, err := s.GetByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if u == nil || u.Status == "suspended" {
		return nil, nil
	}
	return &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
	}, nil
}
