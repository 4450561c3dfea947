package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencampus/redressal/internal/models"
)

func TestUserAdminService_List_Sanitized(t *testing.T) {
	dir := newIdentityDirectory()
	dir.ListFunc = func(ctx context.Context, role models.Role, limit, offset int) ([]*models.Identity, error) {
		return []*models.Identity{
			NewTestIdentity(role, "amy", "amy@campus.edu", "Password123!"),
		}, nil
	}
	svc := NewUserAdminService(NewIdentityResolver(dir, testLogger()), testLogger())

	idents, err := svc.List(context.Background(), models.RoleStudent, 0, 0)
	require.NoError(t, err)
	require.Len(t, idents, 1)
	assert.Empty(t, idents[0].PasswordHash)
}

func TestUserAdminService_List_InvalidRole(t *testing.T) {
	svc := NewUserAdminService(NewIdentityResolver(newIdentityDirectory(), testLogger()), testLogger())

	_, err := svc.List(context.Background(), models.Role("guest"), 0, 0)
	assert.ErrorIs(t, err, models.ErrUnsupportedRole)
}

func TestUserAdminService_Get(t *testing.T) {
	faculty := NewTestIdentity(models.RoleFaculty, "pat", "pat@campus.edu", "Password123!")
	svc := NewUserAdminService(NewIdentityResolver(newIdentityDirectory(faculty), testLogger()), testLogger())

	ident, err := svc.Get(context.Background(), models.RoleFaculty, faculty.ID)
	require.NoError(t, err)
	assert.Equal(t, faculty.ID, ident.ID)
	assert.Empty(t, ident.PasswordHash)

	_, err = svc.Get(context.Background(), models.RoleStudent, faculty.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserAdminService_Delete_SelfDeleteRejected(t *testing.T) {
	admin := NewTestIdentity(models.RoleAdmin, "root", "root@campus.edu", "Password123!")
	svc := NewUserAdminService(NewIdentityResolver(newIdentityDirectory(admin), testLogger()), testLogger())

	err := svc.Delete(context.Background(), admin.Sanitized(), models.RoleAdmin, admin.ID)
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestUserAdminService_Delete_Success(t *testing.T) {
	admin := NewTestIdentity(models.RoleAdmin, "root", "root@campus.edu", "Password123!")
	student := NewTestIdentity(models.RoleStudent, "amy", "amy@campus.edu", "Password123!")

	dir := newIdentityDirectory(student)
	var deletedRole models.Role
	var deletedID string
	dir.DeleteFunc = func(ctx context.Context, role models.Role, id string) error {
		deletedRole = role
		deletedID = id
		return nil
	}
	svc := NewUserAdminService(NewIdentityResolver(dir, testLogger()), testLogger())

	err := svc.Delete(context.Background(), admin.Sanitized(), models.RoleStudent, student.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, deletedRole)
	assert.Equal(t, student.ID, deletedID)
}
