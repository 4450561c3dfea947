package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencampus/redressal/internal/auth"
	"github.com/opencampus/redressal/internal/models"
)

const testTokenSecret = "test-secret-key-for-service-tests-0123456789"

func newTestAuthService(dir *identityDirectory) *AuthService {
	resolver := NewIdentityResolver(dir, testLogger())
	tm := auth.NewTokenManager(testTokenSecret, time.Hour)
	return NewAuthService(resolver, tm, testLogger(), testAudit())
}

func TestAuthService_Signup_Success(t *testing.T) {
	svc := newTestAuthService(newIdentityDirectory())

	resp, err := svc.Signup(context.Background(), SignupInput{
		Role:     models.RoleStudent,
		Name:     "Amy Lee",
		Username: "amy",
		Email:    "amy@campus.edu",
		Password: "Password123!",
		Year:     2,
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, models.RoleStudent, resp.Identity.Role)
	assert.Empty(t, resp.Identity.PasswordHash, "response identity is sanitized")

	// The token is immediately usable and carries the new identity.
	tm := auth.NewTokenManager(testTokenSecret, time.Hour)
	claims, err := tm.Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.Identity.ID, claims.IdentityID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestAuthService_Signup_WeakPassword(t *testing.T) {
	svc := newTestAuthService(newIdentityDirectory())

	_, err := svc.Signup(context.Background(), SignupInput{
		Role:     models.RoleStudent,
		Username: "amy",
		Email:    "amy@campus.edu",
		Password: "short",
	})
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestAuthService_Signup_DuplicateEmailAcrossVariants(t *testing.T) {
	student := NewTestIdentity(models.RoleStudent, "amy", "amy@campus.edu", "Password123!")
	svc := newTestAuthService(newIdentityDirectory(student))

	_, err := svc.Signup(context.Background(), SignupInput{
		Role:     models.RoleFaculty,
		Username: "amy.f",
		Email:    "amy@campus.edu",
		Password: "Password123!",
	})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestAuthService_Signup_SameUsernameDifferentVariant(t *testing.T) {
	student := NewTestIdentity(models.RoleStudent, "amy", "amy.s@campus.edu", "Password123!")
	svc := newTestAuthService(newIdentityDirectory(student))

	resp, err := svc.Signup(context.Background(), SignupInput{
		Role:     models.RoleFaculty,
		Username: "amy",
		Email:    "amy.f@campus.edu",
		Password: "Password123!",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleFaculty, resp.Identity.Role)
}

func TestAuthService_Signup_UnsupportedRole(t *testing.T) {
	svc := newTestAuthService(newIdentityDirectory())

	_, err := svc.Signup(context.Background(), SignupInput{
		Role:     models.Role("guest"),
		Username: "g",
		Email:    "g@campus.edu",
		Password: "Password123!",
	})
	assert.ErrorIs(t, err, models.ErrUnsupportedRole)
}

func TestAuthService_Login_Success(t *testing.T) {
	student := NewTestIdentity(models.RoleStudent, "amy", "amy@campus.edu", "Password123!")
	svc := newTestAuthService(newIdentityDirectory(student))

	resp, err := svc.Login(context.Background(), "amy", "Password123!", "")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, student.ID, resp.Identity.ID)
	assert.Empty(t, resp.Identity.PasswordHash)
}

func TestAuthService_Login_ByEmail(t *testing.T) {
	student := NewTestIdentity(models.RoleStudent, "amy", "amy@campus.edu", "Password123!")
	svc := newTestAuthService(newIdentityDirectory(student))

	resp, err := svc.Login(context.Background(), "AMY@campus.edu", "Password123!", "")
	require.NoError(t, err)
	assert.Equal(t, student.ID, resp.Identity.ID)
}

func TestAuthService_Login_GenericFailure(t *testing.T) {
	student := NewTestIdentity(models.RoleStudent, "amy", "amy@campus.edu", "Password123!")
	svc := newTestAuthService(newIdentityDirectory(student))

	// Unknown identity and wrong password produce the same error.
	_, errUnknown := svc.Login(context.Background(), "nobody", "Password123!", "")
	_, errWrongPw := svc.Login(context.Background(), "amy", "wrong-password", "")

	assert.ErrorIs(t, errUnknown, models.ErrUnauthorized)
	assert.ErrorIs(t, errWrongPw, models.ErrUnauthorized)
	assert.Equal(t, errUnknown, errWrongPw)
}

func TestAuthService_Login_HintMiss(t *testing.T) {
	student := NewTestIdentity(models.RoleStudent, "amy", "amy@campus.edu", "Password123!")
	svc := newTestAuthService(newIdentityDirectory(student))

	_, err := svc.Login(context.Background(), "amy", "Password123!", models.RoleFaculty)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_UpdateProfile_PatchesNonZeroFields(t *testing.T) {
	faculty := NewTestIdentity(models.RoleFaculty, "pat", "pat@campus.edu", "Password123!")
	faculty.Department = "Physics"
	dir := newIdentityDirectory(faculty)

	updates := make(map[string]*models.Identity)
	dir.UpdateProfileFunc = func(ctx context.Context, role models.Role, id string, ident *models.Identity) (*models.Identity, error) {
		updates[id] = ident
		return ident, nil
	}

	svc := newTestAuthService(dir)
	updated, err := svc.UpdateProfile(context.Background(), faculty.Sanitized(), ProfileUpdate{
		Name:  "Pat Chen",
		Title: "Professor",
	})
	require.NoError(t, err)
	assert.Equal(t, "Pat Chen", updated.Name)
	assert.Equal(t, "Professor", updated.Title)
	assert.Equal(t, "Physics", updated.Department, "unset patch fields keep current values")
	assert.Empty(t, updated.PasswordHash)
	require.Contains(t, updates, faculty.ID)
}

func TestAuthService_UpdateProfile_StaleIdentity(t *testing.T) {
	ghost := NewTestIdentity(models.RoleStudent, "ghost", "ghost@campus.edu", "Password123!")
	svc := newTestAuthService(newIdentityDirectory())

	_, err := svc.UpdateProfile(context.Background(), ghost.Sanitized(), ProfileUpdate{Name: "New"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAuthService_ChangePassword_Success(t *testing.T) {
	student := NewTestIdentity(models.RoleStudent, "amy", "amy@campus.edu", "OldPassword1!")
	dir := newIdentityDirectory(student)

	var storedHash string
	dir.UpdatePasswordFunc = func(ctx context.Context, role models.Role, id, passwordHash string) error {
		storedHash = passwordHash
		return nil
	}

	svc := newTestAuthService(dir)
	err := svc.ChangePassword(context.Background(), student.Sanitized(), "OldPassword1!", "NewPassword2!")
	require.NoError(t, err)
	assert.NotEmpty(t, storedHash)
	assert.NotEqual(t, student.PasswordHash, storedHash)
}

func TestAuthService_ChangePassword_WrongCurrent(t *testing.T) {
	student := NewTestIdentity(models.RoleStudent, "amy", "amy@campus.edu", "OldPassword1!")
	svc := newTestAuthService(newIdentityDirectory(student))

	err := svc.ChangePassword(context.Background(), student.Sanitized(), "not-it", "NewPassword2!")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_ChangePassword_WeakNew(t *testing.T) {
	student := NewTestIdentity(models.RoleStudent, "amy", "amy@campus.edu", "OldPassword1!")
	svc := newTestAuthService(newIdentityDirectory(student))

	err := svc.ChangePassword(context.Background(), student.Sanitized(), "OldPassword1!", "short")
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestAuthService_CheckAvailability(t *testing.T) {
	student := NewTestIdentity(models.RoleStudent, "amy", "amy@campus.edu", "Password123!")
	svc := newTestAuthService(newIdentityDirectory(student))

	usernameTaken, emailTaken, err := svc.CheckAvailability(context.Background(), "amy", "new@campus.edu")
	require.NoError(t, err)
	assert.True(t, usernameTaken)
	assert.False(t, emailTaken)
}
