package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"medtrack/internal/apperrors"
	"medtrack/internal/auth"
	"medtrack/internal/dto"
	"medtrack/internal/models"
	"medtrack/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func locationIDs(locations []models.Location) []uint {
	ids := make([]uint, 0, len(locations))
	for _, l := range locations {
		ids = append(ids, l.ID)
	}
	return ids
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	l1 := testutil.CreateLocation(t, f.db, "Apollo Clinic", "Chennai")
	l2 := testutil.CreateLocation(t, f.db, "Fortis", "Mumbai")

	u, err := f.svc.Users.Create(f.ctx, dto.RegisterRequest{
		Name: "Ravi", Email: "ravi@medtrack.in", Password: "pw", LocationIDs: []uint{l1.ID, l2.ID, l1.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleRep, u.Role)
	assert.True(t, u.IsActive)
	assert.NotEqual(t, "pw", u.PasswordHash)
	assert.True(t, auth.CheckPassword("pw", u.PasswordHash))
	assert.ElementsMatch(t, []uint{l1.ID, l2.ID}, locationIDs(u.Locations))

	_, err = f.svc.Users.Create(f.ctx, dto.RegisterRequest{Name: "Other", Email: "ravi@medtrack.in", Password: "pw"})
	assertAppError(t, err, apperrors.KindBadRequest, "Email already exists: ravi@medtrack.in")

	_, err = f.svc.Users.Create(f.ctx, dto.RegisterRequest{Name: "Meera", Email: "meera@medtrack.in", Password: "pw", LocationIDs: []uint{99}})
	assertAppError(t, err, apperrors.KindNotFound, "Location not found with id: 99")

	_, err = f.svc.Users.Create(f.ctx, dto.RegisterRequest{Name: "Meera", Email: "meera@medtrack.in", Password: "pw", Role: "OWNER"})
	assertAppError(t, err, apperrors.KindBadRequest, "Invalid role: OWNER")

	inactive, err := f.svc.Users.Create(f.ctx, dto.RegisterRequest{
		Name: "Meera", Email: "meera@medtrack.in", Password: "pw", Role: "manager", IsActive: ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, inactive.Role)
	assert.False(t, inactive.IsActive)
}

func TestPasswordLongerThanBcryptLimit(t *testing.T) {
	f := newFixture(t)
	long := strings.Repeat("p", 80)

	_, err := f.svc.Users.Create(f.ctx, dto.RegisterRequest{Name: "Ravi", Email: "ravi@medtrack.in", Password: long})
	assertAppError(t, err, apperrors.KindValidation, "Password must be at most 72 bytes")

	_, err = f.svc.Auth.Register(f.ctx, dto.RegisterRequest{Name: "Root", Email: "root@medtrack.in", Password: long})
	assertAppError(t, err, apperrors.KindValidation, "Password must be at most 72 bytes")

	u, err := f.svc.Users.Create(f.ctx, dto.RegisterRequest{Name: "Ravi", Email: "ravi@medtrack.in", Password: strings.Repeat("p", 72)})
	require.NoError(t, err)
	_, err = f.svc.Users.Update(f.ctx, u.ID, dto.UserUpdateRequest{Password: &long})
	assertAppError(t, err, apperrors.KindValidation, "Password must be at most 72 bytes")
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	l1 := testutil.CreateLocation(t, f.db, "Apollo Clinic", "Chennai")
	l2 := testutil.CreateLocation(t, f.db, "Fortis", "Mumbai")
	u, err := f.svc.Users.Create(f.ctx, dto.RegisterRequest{Name: "Ravi", Email: "ravi@medtrack.in", Password: "pw", LocationIDs: []uint{l1.ID}})
	require.NoError(t, err)
	testutil.CreateUser(t, f.db, "Taken", models.RoleRep)
	originalHash := u.PasswordHash

	// No locationIds and an empty password leave both untouched.
	updated, err := f.svc.Users.Update(f.ctx, u.ID, dto.UserUpdateRequest{Name: ptr("Ravi K"), Password: ptr(""), Phone: ptr("98400")})
	require.NoError(t, err)
	assert.Equal(t, "Ravi K", updated.Name)
	assert.Equal(t, "98400", updated.Phone)
	assert.Equal(t, originalHash, updated.PasswordHash)
	assert.Equal(t, []uint{l1.ID}, locationIDs(updated.Locations))

	updated, err = f.svc.Users.Update(f.ctx, u.ID, dto.UserUpdateRequest{Password: ptr("new"), LocationIDs: &[]uint{l2.ID}})
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword("new", updated.PasswordHash))
	assert.Equal(t, []uint{l2.ID}, locationIDs(updated.Locations))

	updated, err = f.svc.Users.Update(f.ctx, u.ID, dto.UserUpdateRequest{LocationIDs: &[]uint{}})
	require.NoError(t, err)
	assert.Empty(t, updated.Locations)

	var other models.User
	require.NoError(t, f.db.Where("name = ?", "Taken").First(&other).Error)
	_, err = f.svc.Users.Update(f.ctx, u.ID, dto.UserUpdateRequest{Email: &other.Email})
	assertAppError(t, err, apperrors.KindBadRequest, "Email already exists: "+other.Email)
}

func TestUserLocations(t *testing.T) {
	f := newFixture(t)
	l1 := testutil.CreateLocation(t, f.db, "Apollo Clinic", "Chennai")
	l2 := testutil.CreateLocation(t, f.db, "Fortis", "Mumbai")
	l3 := testutil.CreateLocation(t, f.db, "Manipal", "Bengaluru")
	rep := testutil.CreateUser(t, f.db, "Ravi", models.RoleRep, l1)
	testutil.CreateUser(t, f.db, "Meera", models.RoleRep, l2)

	u, err := f.svc.Users.AssignLocations(f.ctx, rep.ID, []uint{l2.ID, l3.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{l2.ID, l3.ID}, locationIDs(u.Locations))

	u, err = f.svc.Users.AddLocation(f.ctx, rep.ID, l1.ID)
	require.NoError(t, err)
	assert.Len(t, u.Locations, 3)

	// Adding twice is a no-op.
	u, err = f.svc.Users.AddLocation(f.ctx, rep.ID, l1.ID)
	require.NoError(t, err)
	assert.Len(t, u.Locations, 3)

	u, err = f.svc.Users.RemoveLocation(f.ctx, rep.ID, l3.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{l1.ID, l2.ID}, locationIDs(u.Locations))

	users, err := f.svc.Users.ByLocation(f.ctx, l2.ID)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = f.svc.Users.AddLocation(f.ctx, rep.ID, 999)
	assertAppError(t, err, apperrors.KindNotFound, "Location not found with id: 999")

	_, err = f.svc.Users.ByLocation(f.ctx, 999)
	assertAppError(t, err, apperrors.KindNotFound, "Location not found with id: 999")

	locations, err := f.svc.Users.Locations(f.ctx, rep.ID)
	require.NoError(t, err)
	assert.Len(t, locations, 2)
}

func TestSetActiveAndDeleteUser(t *testing.T) {
	f := newFixture(t)
	l1 := testutil.CreateLocation(t, f.db, "Apollo Clinic", "Chennai")
	rep := testutil.CreateUser(t, f.db, "Ravi", models.RoleRep, l1)
	idle := testutil.CreateUser(t, f.db, "Idle", models.RoleRep, l1)
	doc := testutil.CreateDoctor(t, f.db, "Dr. Rao", "City Hospital")

	u, err := f.svc.Users.SetActive(f.ctx, rep.ID, false)
	require.NoError(t, err)
	assert.False(t, u.IsActive)

	_, err = f.svc.Visits.Create(f.ctx, dto.VisitRequest{UserID: rep.ID, DoctorID: doc.ID, VisitDate: date("2025-03-15")})
	require.NoError(t, err)

	err = f.svc.Users.Delete(f.ctx, rep.ID)
	assertAppError(t, err, apperrors.KindBadRequest, "User is still referenced by other records")

	require.NoError(t, f.svc.Users.Delete(f.ctx, idle.ID))
	_, err = f.svc.Users.Get(f.ctx, idle.ID)
	assertAppError(t, err, apperrors.KindNotFound, fmt.Sprintf("User not found with id: %d", idle.ID))

	var links int64
	require.NoError(t, f.db.Table("user_locations").Where("user_id = ?", idle.ID).Count(&links).Error)
	assert.Zero(t, links)
}

func TestLoginAndRegister(t *testing.T) {
	f := newFixture(t)

	admin, err := f.svc.Auth.Register(f.ctx, dto.RegisterRequest{Name: "A", Email: "a@x", Password: "pw", Role: "REP"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	resp, err := f.svc.Auth.Login(f.ctx, dto.LoginRequest{Email: "a@x", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", resp.Role)
	assert.Equal(t, "A", resp.Name)
	assert.Equal(t, "a@x", resp.Email)

	identity, err := auth.NewTokenManager("test-secret", time.Hour).ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, identity.UserID)
	assert.Equal(t, "ADMIN", identity.Role)

	_, err = f.svc.Auth.Login(f.ctx, dto.LoginRequest{Email: "a@x", Password: "wrong"})
	assertAppError(t, err, apperrors.KindUnauthorized, "Invalid email or password")
	_, err = f.svc.Auth.Login(f.ctx, dto.LoginRequest{Email: "nobody@x", Password: "pw"})
	assertAppError(t, err, apperrors.KindUnauthorized, "Invalid email or password")

	_, err = f.svc.Users.SetActive(f.ctx, admin.ID, false)
	require.NoError(t, err)
	_, err = f.svc.Auth.Login(f.ctx, dto.LoginRequest{Email: "a@x", Password: "pw"})
	assertAppError(t, err, apperrors.KindUnauthorized, "Account is deactivated")

	_, err = f.svc.Auth.Register(f.ctx, dto.RegisterRequest{Name: "B", Email: "a@x", Password: "pw"})
	assertAppError(t, err, apperrors.KindBadRequest, "Email already exists: a@x")
}
