package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	pkgauth "github.com/opencampus/redressal/pkg/auth"

	"github.com/opencampus/redressal/internal/models"
)

// IdentityStore is the variant-scoped persistence interface the resolver
// dispatches over. The resolver is the only component that crosses variant
// boundaries; everything above it addresses identities by id and role.
type IdentityStore interface {
	Create(ctx context.Context, ident *models.Identity) (*models.Identity, error)
	GetByID(ctx context.Context, role models.Role, id string) (*models.Identity, error)
	GetByUsername(ctx context.Context, role models.Role, username string) (*models.Identity, error)
	GetByEmail(ctx context.Context, role models.Role, email string) (*models.Identity, error)
	List(ctx context.Context, role models.Role, limit, offset int) ([]*models.Identity, error)
	UpdateProfile(ctx context.Context, role models.Role, id string, ident *models.Identity) (*models.Identity, error)
	UpdatePassword(ctx context.Context, role models.Role, id, passwordHash string) error
	Delete(ctx context.Context, role models.Role, id string) error
	UsernameExists(ctx context.Context, role models.Role, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// IdentityResolver locates identities across the three variant stores. When a
// role hint is present only that variant is consulted; otherwise variants are
// scanned in the fixed priority order of models.Roles.
type IdentityResolver struct {
	store  IdentityStore
	logger *slog.Logger
}

func NewIdentityResolver(store IdentityStore, logger *slog.Logger) *IdentityResolver {
	return &IdentityResolver{store: store, logger: logger}
}

// ResolveForLogin finds the identity owning a username or email. The lookup
// key is matched against username first, then email, within each variant.
// Failure never reveals which variants were searched.
func (r *IdentityResolver) ResolveForLogin(ctx context.Context, usernameOrEmail string, hint models.Role) (*models.Identity, error) {
	key := strings.ToLower(strings.TrimSpace(usernameOrEmail))
	if key == "" {
		return nil, models.ErrNotFound
	}

	if hint != "" {
		if !hint.Valid() {
			return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedRole, hint)
		}
		return r.findInVariant(ctx, hint, key)
	}

	for _, role := range models.Roles {
		ident, err := r.findInVariant(ctx, role, key)
		if err == nil {
			return ident, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
	}

	return nil, models.ErrNotFound
}

func (r *IdentityResolver) findInVariant(ctx context.Context, role models.Role, key string) (*models.Identity, error) {
	ident, err := r.store.GetByUsername(ctx, role, key)
	if err == nil {
		return ident, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	return r.store.GetByEmail(ctx, role, key)
}

// ResolveByID scans variants in priority order until the id is found.
func (r *IdentityResolver) ResolveByID(ctx context.Context, id string) (*models.Identity, error) {
	for _, role := range models.Roles {
		ident, err := r.store.GetByID(ctx, role, id)
		if err == nil {
			return ident, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
	}
	return nil, models.ErrNotFound
}

// ResolveByIDInVariant is the role-hinted lookup used on every authenticated
// request: the token's role is authoritative, so only one variant is read.
func (r *IdentityResolver) ResolveByIDInVariant(ctx context.Context, role models.Role, id string) (*models.Identity, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedRole, role)
	}

	ident, err := r.store.GetByID(ctx, role, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrStaleIdentity
		}
		return nil, err
	}
	return ident, nil
}

// ExistsUsernameOrEmail reports, independently, whether the username is taken
// in any variant and whether the email is taken in any variant. Used for
// availability pre-checks; creation itself is guarded by the storage-level
// unique constraints.
func (r *IdentityResolver) ExistsUsernameOrEmail(ctx context.Context, username, email string) (bool, bool, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	usernameTaken := false
	if username != "" {
		for _, role := range models.Roles {
			taken, err := r.store.UsernameExists(ctx, role, username)
			if err != nil {
				return false, false, err
			}
			if taken {
				usernameTaken = true
				break
			}
		}
	}

	emailTaken := false
	if email != "" {
		var err error
		emailTaken, err = r.store.EmailExists(ctx, email)
		if err != nil {
			return false, false, err
		}
	}

	return usernameTaken, emailTaken, nil
}

// CreateInVariant hashes the credential and routes creation to the role's
// store. Usernames are unique within a variant; emails are unique across all
// variants.
func (r *IdentityResolver) CreateInVariant(ctx context.Context, role models.Role, ident *models.Identity, password string) (*models.Identity, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedRole, role)
	}

	ident.Role = role
	ident.Username = strings.ToLower(strings.TrimSpace(ident.Username))
	ident.Email = strings.ToLower(strings.TrimSpace(ident.Email))

	// Pre-checks give friendly errors; the unique constraints in storage are
	// the real guard under concurrency.
	usernameTaken, err := r.store.UsernameExists(ctx, role, ident.Username)
	if err != nil {
		return nil, err
	}
	if usernameTaken {
		return nil, fmt.Errorf("username: %w", models.ErrConflict)
	}

	emailTaken, err := r.store.EmailExists(ctx, ident.Email)
	if err != nil {
		return nil, err
	}
	if emailTaken {
		return nil, fmt.Errorf("email: %w", models.ErrConflict)
	}

	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash credential: %w", err)
	}
	ident.PasswordHash = hash

	created, err := r.store.Create(ctx, ident)
	if err != nil {
		return nil, err
	}

	r.logger.Info("identity created",
		slog.String("identity_id", created.ID),
		slog.String("role", string(created.Role)),
	)
	return created, nil
}

// VerifyCredential compares a plaintext against the identity's stored hash.
// Mismatch is a false return, never an error surfaced to the caller.
func (r *IdentityResolver) VerifyCredential(ident *models.Identity, plaintext string) bool {
	if ident == nil || ident.PasswordHash == "" {
		return false
	}
	return pkgauth.ComparePassword(ident.PasswordHash, plaintext) == nil
}
