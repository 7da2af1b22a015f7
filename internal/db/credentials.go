package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mailsmithapp/mailsmith/internal/crypto"
	"github.com/mailsmithapp/mailsmith/internal/errs"
)

const credentialColumns = `id, shop_domain, owner_user_id, encrypted_access_token, scope, is_active, created_at, updated_at`

// StoreCredentialStore persists connected stores. Access tokens are
// encrypted on the way in and only decrypted on explicit request.
type StoreCredentialStore struct {
	pool   Pool
	crypto crypto.Encryptor
}

func NewStoreCredentialStore(pool Pool, encryptor crypto.Encryptor) (*StoreCredentialStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if encryptor == nil {
		return nil, fmt.Errorf("encryptor is required")
	}
	return &StoreCredentialStore{pool: pool, crypto: encryptor}, nil
}

// UpsertInput describes a freshly exchanged credential.
type UpsertInput struct {
	ShopDomain  string
	OwnerUserID string
	AccessToken string
	Scope       string
}

// Upsert encrypts the token and inserts or replaces the row for the shop.
// The row is always left active.
func (s *StoreCredentialStore) Upsert(ctx context.Context, in UpsertInput) (*StoreCredential, error) {
	encrypted, err := s.crypto.Encrypt(in.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}

	const q = `
INSERT INTO store_credentials (shop_domain, owner_user_id, encrypted_access_token, scope, is_active)
VALUES ($1, $2, $3, $4, TRUE)
ON CONFLICT (shop_domain) DO UPDATE SET
    owner_user_id = EXCLUDED.owner_user_id,
    encrypted_access_token = EXCLUDED.encrypted_access_token,
    scope = EXCLUDED.scope,
    is_active = TRUE,
    updated_at = NOW()
RETURNING ` + credentialColumns

	row := s.pool.QueryRow(ctx, q, in.ShopDomain, in.OwnerUserID, encrypted, in.Scope)
	cred, err := scanCredential(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert store credential: %w", err)
	}
	return cred, nil
}

func (s *StoreCredentialStore) GetByShop(ctx context.Context, shop string) (*StoreCredential, error) {
	const q = `SELECT ` + credentialColumns + ` FROM store_credentials WHERE shop_domain = $1`
	cred, err := scanCredential(s.pool.QueryRow(ctx, q, shop))
	if err != nil {
		return nil, notFound(err, "store credential")
	}
	return cred, nil
}

func (s *StoreCredentialStore) ListByOwner(ctx context.Context, userID string) ([]*StoreCredential, error) {
	const q = `SELECT ` + credentialColumns + ` FROM store_credentials WHERE owner_user_id = $1 ORDER BY created_at`
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var creds []*StoreCredential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		creds = append(creds, cred)
	}
	return creds, rows.Err()
}

// SetActive flips is_active for a shop owned by userID. Rows are never deleted.
func (s *StoreCredentialStore) SetActive(ctx context.Context, userID, shop string, active bool) error {
	const q = `
UPDATE store_credentials SET is_active = $3, updated_at = NOW()
WHERE shop_domain = $1 AND owner_user_id = $2`
	tag, err := s.pool.Exec(ctx, q, shop, userID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: store credential", errs.ErrNotFound)
	}
	return nil
}

// AccessToken returns the decrypted token of an active credential.
func (s *StoreCredentialStore) AccessToken(cred *StoreCredential) (string, error) {
	if !cred.IsConnected() {
		return "", fmt.Errorf("%w: store is not connected", errs.ErrNotFound)
	}
	return s.crypto.Decrypt(cred.EncryptedAccessToken)
}

// EncryptLegacyTokens encrypts any token still stored in plaintext. Running
// it twice is a no-op for rows already in envelope form.
func (s *StoreCredentialStore) EncryptLegacyTokens(ctx context.Context, logger *slog.Logger) (int, error) {
	rows, err := s.pool.Query(ctx, `SELECT shop_domain, encrypted_access_token FROM store_credentials`)
	if err != nil {
		return 0, err
	}

	type legacy struct{ shop, token string }
	var pending []legacy
	for rows.Next() {
		var l legacy
		if err := rows.Scan(&l.shop, &l.token); err != nil {
			rows.Close()
			return 0, err
		}
		if l.token != "" && !crypto.IsEncrypted(l.token) {
			pending = append(pending, l)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	updated := 0
	for _, l := range pending {
		encrypted, err := s.crypto.Encrypt(l.token)
		if err != nil {
			return updated, fmt.Errorf("failed to encrypt token for %s: %w", l.shop, err)
		}
		if _, err := s.pool.Exec(ctx,
			`UPDATE store_credentials SET encrypted_access_token = $2, updated_at = NOW() WHERE shop_domain = $1`,
			l.shop, encrypted,
		); err != nil {
			return updated, err
		}
		updated++
		if logger != nil {
			logger.Info("encrypted legacy access token", "shop", l.shop)
		}
	}
	return updated, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCredential(row scanner) (*StoreCredential, error) {
	var c StoreCredential
	if err := row.Scan(
		&c.ID,
		&c.ShopDomain,
		&c.OwnerUserID,
		&c.EncryptedAccessToken,
		&c.Scope,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
