package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jask/ledgerlock/internal/database/repository"
	"github.com/jask/ledgerlock/internal/vault"
)

// ErrBadPassword is a failed unlock attempt. Always recoverable by trying
// again with the right password.
var ErrBadPassword = errors.New("unlock: wrong password")

// ErrAlreadySetUp blocks Setup from clobbering existing unlock material.
var ErrAlreadySetUp = errors.New("unlock: vault already set up")

// UnlockService gates vault access. The password hash only answers "is
// this the right password"; the encryption key is derived separately from
// its own salt.
type UnlockService struct {
	Meta *repository.VaultMetaRepo
	KDF  vault.Params
}

// Setup runs first-time initialization: stores the verification hash and a
// fresh KDF salt, then returns the opened vault.
func (s *UnlockService) Setup(ctx context.Context, password string) (*vault.Vault, error) {
	if _, err := s.Meta.Get(ctx); err == nil {
		return nil, ErrAlreadySetUp
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := vault.HashPassword(password)
	if err != nil {
		return nil, err
	}
	salt, err := vault.NewSalt()
	if err != nil {
		return nil, err
	}
	if err := s.Meta.Set(ctx, repository.VaultMeta{PasswordHash: hash, KDFSalt: salt}); err != nil {
		return nil, fmt.Errorf("store vault meta: %w", err)
	}
	return vault.Open(password, salt, s.KDF)
}

// Unlock verifies the password against the stored hash and derives the key.
func (s *UnlockService) Unlock(ctx context.Context, password string) (*vault.Vault, error) {
	meta, err := s.Meta.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !vault.VerifyPassword(password, meta.PasswordHash) {
		return nil, ErrBadPassword
	}
	return vault.Open(password, meta.KDFSalt, s.KDF)
}
