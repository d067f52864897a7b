package services

import (
	"fmt"
	"testing"

	"medtrack/internal/apperrors"
	"medtrack/internal/dto"
	"medtrack/internal/models"
	"medtrack/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLocation(t *testing.T) {
	f := newFixture(t)

	l, err := f.svc.Locations.Create(f.ctx, dto.LocationRequest{Name: " Apollo Clinic ", City: "Chennai"})
	require.NoError(t, err)
	assert.Equal(t, "Apollo Clinic", l.Name)
	assert.Equal(t, "India", l.Country)
	assert.True(t, l.IsActive)

	_, err = f.svc.Locations.Create(f.ctx, dto.LocationRequest{Name: "APOLLO clinic", City: "Madurai"})
	assertAppError(t, err, apperrors.KindBadRequest, "Location with name 'APOLLO clinic' already exists")

	l, err = f.svc.Locations.Create(f.ctx, dto.LocationRequest{Name: "Mayo", City: "Rochester", Country: "USA", IsActive: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, "USA", l.Country)
	assert.False(t, l.IsActive)

	_, err = f.svc.Locations.Create(f.ctx, dto.LocationRequest{Name: "  ", City: "Pune"})
	assertAppError(t, err, apperrors.KindValidation, "Location name and city are required")
}

func TestCreateLocationsBulk(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Locations.CreateBulk(f.ctx, nil)
	assertAppError(t, err, apperrors.KindBadRequest, "At least one location is required")

	reqs := make([]dto.LocationRequest, 51)
	for i := range reqs {
		reqs[i] = dto.LocationRequest{Name: fmt.Sprintf("Clinic %02d", i), City: "Delhi"}
	}
	_, err = f.svc.Locations.CreateBulk(f.ctx, reqs)
	assertAppError(t, err, apperrors.KindBadRequest, "Cannot add more than 50 locations at once")

	created, err := f.svc.Locations.CreateBulk(f.ctx, reqs[:50])
	require.NoError(t, err)
	assert.Len(t, created, 50)

	// A duplicate anywhere in the batch rolls back the whole batch.
	_, err = f.svc.Locations.CreateBulk(f.ctx, []dto.LocationRequest{
		{Name: "Fresh", City: "Pune"},
		{Name: "clinic 07", City: "Pune"},
	})
	assertAppError(t, err, apperrors.KindBadRequest, "Location with name 'clinic 07' already exists")
	all, err := f.svc.Locations.List(f.ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 50)
}

func TestLocationQueries(t *testing.T) {
	f := newFixture(t)
	apollo := testutil.CreateLocation(t, f.db, "Apollo Clinic", "Chennai")
	testutil.CreateLocation(t, f.db, "Fortis", "Mumbai")
	testutil.CreateLocation(t, f.db, "Apollo Hospital", "Hyderabad")

	_, err := f.svc.Locations.SetActive(f.ctx, apollo.ID, false)
	require.NoError(t, err)

	active, err := f.svc.Locations.List(f.ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	found, err := f.svc.Locations.Search(f.ctx, "apollo", false)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = f.svc.Locations.Search(f.ctx, "apollo", true)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Apollo Hospital", found[0].Name)

	found, err = f.svc.Locations.Search(f.ctx, "mum", false)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	byCity, err := f.svc.Locations.ByCity(f.ctx, "chennai")
	require.NoError(t, err)
	assert.Len(t, byCity, 1)

	_, err = f.svc.Locations.Get(f.ctx, 999)
	assertAppError(t, err, apperrors.KindNotFound, "Location not found with id: 999")
}

func TestUpdateAndDeleteLocation(t *testing.T) {
	f := newFixture(t)
	l1 := testutil.CreateLocation(t, f.db, "Apollo Clinic", "Chennai")
	l2 := testutil.CreateLocation(t, f.db, "Fortis", "Mumbai")
	rep := testutil.CreateUser(t, f.db, "Ravi", models.RoleRep, l1, l2)

	_, err := f.svc.Locations.Update(f.ctx, l2.ID, dto.LocationUpdateRequest{Name: ptr("apollo clinic")})
	assertAppError(t, err, apperrors.KindBadRequest, "Location with name 'apollo clinic' already exists")

	updated, err := f.svc.Locations.Update(f.ctx, l2.ID, dto.LocationUpdateRequest{City: ptr("Navi Mumbai"), State: ptr("MH")})
	require.NoError(t, err)
	assert.Equal(t, "Navi Mumbai", updated.City)
	assert.Equal(t, "MH", updated.State)

	require.NoError(t, f.svc.Locations.Delete(f.ctx, l2.ID))
	locations, err := f.svc.Users.Locations(f.ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{l1.ID}, locationIDs(locations))

	err = f.svc.Locations.Delete(f.ctx, l2.ID)
	assertAppError(t, err, apperrors.KindNotFound, fmt.Sprintf("Location not found with id: %d", l2.ID))
}

func TestDoctors(t *testing.T) {
	f := newFixture(t)

	d, err := f.svc.Doctors.Create(f.ctx, dto.DoctorRequest{Name: "Dr. Rao", Specialty: "Cardiology", Hospital: "City Hospital"})
	require.NoError(t, err)
	_, err = f.svc.Doctors.Create(f.ctx, dto.DoctorRequest{Name: "Dr. Rao", Hospital: "City Hospital"})
	assertAppError(t, err, apperrors.KindBadRequest, "Doctor with name 'Dr. Rao' already exists at hospital 'City Hospital'")

	// Same name at another hospital is a different doctor.
	other, err := f.svc.Doctors.Create(f.ctx, dto.DoctorRequest{Name: "Dr. Rao", Specialty: "Neurology", Hospital: "Apollo"})
	require.NoError(t, err)

	_, err = f.svc.Doctors.Update(f.ctx, other.ID, dto.DoctorUpdateRequest{Hospital: ptr("City Hospital")})
	assertAppError(t, err, apperrors.KindBadRequest, "Doctor with name 'Dr. Rao' already exists at hospital 'City Hospital'")

	_, err = f.svc.Doctors.Update(f.ctx, d.ID, dto.DoctorUpdateRequest{Name: ptr(" ")})
	assertAppError(t, err, apperrors.KindValidation, "Doctor name cannot be blank")

	bySpecialty, err := f.svc.Doctors.BySpecialty(f.ctx, "cardiology")
	require.NoError(t, err)
	assert.Len(t, bySpecialty, 1)

	byHospital, err := f.svc.Doctors.ByHospital(f.ctx, "Apollo")
	require.NoError(t, err)
	assert.Len(t, byHospital, 1)

	found, err := f.svc.Doctors.Search(f.ctx, "rao")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	rep := testutil.CreateUser(t, f.db, "Ravi", models.RoleRep)
	_, err = f.svc.Visits.Create(f.ctx, dto.VisitRequest{UserID: rep.ID, DoctorID: d.ID, VisitDate: date("2025-03-14")})
	require.NoError(t, err)

	err = f.svc.Doctors.Delete(f.ctx, d.ID)
	assertAppError(t, err, apperrors.KindBadRequest, "Doctor is still referenced by other records")
	require.NoError(t, f.svc.Doctors.Delete(f.ctx, other.ID))
}

func TestProducts(t *testing.T) {
	f := newFixture(t)

	p, err := f.svc.Products.Create(f.ctx, dto.ProductRequest{Name: "Atorvastatin", Category: "Tablet", Price: ptr(dec("12.345")), StockQuantity: 10})
	require.NoError(t, err)
	assertDecimal(t, "12.35", p.Price)

	_, err = f.svc.Products.Create(f.ctx, dto.ProductRequest{Name: "Atorvastatin", Price: ptr(dec("1"))})
	assertAppError(t, err, apperrors.KindBadRequest, "Product with name 'Atorvastatin' already exists")

	_, err = f.svc.Products.Create(f.ctx, dto.ProductRequest{Name: "Aspirin", Price: ptr(dec("-0.01"))})
	assertAppError(t, err, apperrors.KindValidation, "Price cannot be negative")

	_, err = f.svc.Products.Update(f.ctx, p.ID, dto.ProductUpdateRequest{Price: ptr(dec("-5"))})
	assertAppError(t, err, apperrors.KindValidation, "Price cannot be negative")

	updated, err := f.svc.Products.Update(f.ctx, p.ID, dto.ProductUpdateRequest{Price: ptr(dec("9.99")), StockQuantity: ptr(0)})
	require.NoError(t, err)
	assertDecimal(t, "9.99", updated.Price)
	assert.Zero(t, updated.StockQuantity)

	testutil.CreateProduct(t, f.db, "Amoxicillin", "4.50")
	byCategory, err := f.svc.Products.ByCategory(f.ctx, "tablet")
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)

	found, err := f.svc.Products.Search(f.ctx, "STATIN")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, p.ID, found[0].ID)

	require.NoError(t, f.svc.Products.Delete(f.ctx, p.ID))
	_, err = f.svc.Products.Get(f.ctx, p.ID)
	assertAppError(t, err, apperrors.KindNotFound, fmt.Sprintf("Product not found with id: %d", p.ID))
}
