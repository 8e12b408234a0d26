package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"tripsplit/internal/core"
)

// GroupService is the thin directory glue: group formation and shared
// secret verification. The ledger core only ever reads what it writes.
type GroupService struct {
	store Store
}

func NewGroupService(store Store) *GroupService {
	return &GroupService{store: store}
}

// Create forms a new group. The shared secret is stored bcrypt-hashed
// and never leaves the store in clear.
func (s *GroupService) Create(ctx context.Context, name string, members []string, secret, destination string) (core.Group, error) {
	if strings.TrimSpace(secret) == "" {
		return core.Group{}, core.ErrEmptySecret
	}

	cleaned := make([]string, 0, len(members))
	for _, m := range members {
		m = strings.TrimSpace(m)
		if m != "" {
			cleaned = append(cleaned, m)
		}
	}

	g := core.Group{
		Name:        strings.TrimSpace(name),
		Members:     cleaned,
		Destination: strings.TrimSpace(destination),
	}
	if err := g.Validate(); err != nil {
		return core.Group{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return core.Group{}, fmt.Errorf("hashing secret: %w", err)
	}
	g.SecretHash = string(hash)

	if err := s.store.CreateGroup(ctx, g); err != nil {
		return core.Group{}, err
	}
	return g, nil
}

// Get looks a group up by name.
func (s *GroupService) Get(ctx context.Context, name string) (core.Group, error) {
	return s.store.GetGroup(ctx, name)
}

// VerifySecret checks a presented secret against the stored hash.
// Returns core.ErrSecretMismatch on a wrong secret.
func (s *GroupService) VerifySecret(ctx context.Context, name, secret string) error {
	g, err := s.store.GetGroup(ctx, name)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(g.SecretHash), []byte(secret)); err != nil {
		return core.ErrSecretMismatch
	}
	return nil
}
