package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/household-backend/internal/domain/valueobject"
	"github.com/ignatzorin/household-backend/internal/models"
	"github.com/ignatzorin/household-backend/internal/pkg/apperror"
)

type mockUserSearcher struct {
	mock.Mock
}

func (m *mockUserSearcher) Search(ctx context.Context, field, substr string) ([]models.User, error) {
	args := m.Called(ctx, field, substr)
	return args.Get(0).([]models.User), args.Error(1)
}

type mockServiceSearcher struct {
	mock.Mock
}

func (m *mockServiceSearcher) Search(ctx context.Context, field, substr string) ([]models.Service, error) {
	args := m.Called(ctx, field, substr)
	return args.Get(0).([]models.Service), args.Error(1)
}

type mockOpenRequestSearcher struct {
	mock.Mock
}

func (m *mockOpenRequestSearcher) SearchOpen(ctx context.Context, serviceID uuid.UUID, field, substr string) ([]models.RequestDetails, error) {
	args := m.Called(ctx, serviceID, field, substr)
	return args.Get(0).([]models.RequestDetails), args.Error(1)
}

type searchFixture struct {
	svc      *SearchService
	users    *mockUserSearcher
	services *mockServiceSearcher
	requests *mockOpenRequestSearcher
	profiles *fakeUsers
}

func newSearchFixture() *searchFixture {
	f := &searchFixture{
		users:    new(mockUserSearcher),
		services: new(mockServiceSearcher),
		requests: new(mockOpenRequestSearcher),
		profiles: newFakeUsers(),
	}
	f.svc = NewSearchService(f.users, f.services, f.requests, f.profiles)
	return f
}

func TestSearchService_UsersAdminOnly(t *testing.T) {
	f := newSearchFixture()
	ctx := context.Background()

	f.users.On("Search", ctx, models.SearchFieldUsername, "iv").Return([]models.User{{Username: "ivan"}}, nil)

	res, err := f.svc.Find(ctx, adminActor, models.SearchEntityUsers, models.SearchFieldUsername, " iv ")
	require.NoError(t, err)
	require.Len(t, res.Users, 1)
	assert.Equal(t, "ivan", res.Users[0].Username)

	customer := NewActor(uuid.New(), valueobject.RoleCustomer)
	_, err = f.svc.Find(ctx, customer, models.SearchEntityUsers, models.SearchFieldUsername, "iv")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	f.users.AssertNumberOfCalls(t, "Search", 1)
}

func TestSearchService_ServicesFieldRules(t *testing.T) {
	f := newSearchFixture()
	ctx := context.Background()
	customer := NewActor(uuid.New(), valueobject.RoleCustomer)

	f.services.On("Search", ctx, models.SearchFieldPincode, "101").Return([]models.Service{{Name: "Уборка"}}, nil)

	res, err := f.svc.Find(ctx, customer, models.SearchEntityServices, models.SearchFieldPincode, "101")
	require.NoError(t, err)
	assert.Len(t, res.Services, 1)

	// администратор ищет услуги только по названию
	_, err = f.svc.Find(ctx, adminActor, models.SearchEntityServices, models.SearchFieldPincode, "101")
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.Find(ctx, customer, models.SearchEntityServices, "description", "x")
	assert.True(t, apperror.IsValidation(err))

	professional := NewActor(uuid.New(), valueobject.RoleProfessional)
	_, err = f.svc.Find(ctx, professional, models.SearchEntityServices, models.SearchFieldServiceName, "x")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestSearchService_RequestsScopedToProfessionalService(t *testing.T) {
	f := newSearchFixture()
	ctx := context.Background()

	serviceID := uuid.New()
	active := f.profiles.add(&models.User{
		Username:   "petr",
		Role:       valueobject.RoleProfessional,
		ServiceID:  &serviceID,
		IsVerified: true,
	})
	unverified := f.profiles.add(&models.User{
		Username:  "oleg",
		Role:      valueobject.RoleProfessional,
		ServiceID: &serviceID,
	})

	f.requests.On("SearchOpen", ctx, serviceID, models.SearchFieldAddress, "ленина").
		Return([]models.RequestDetails{{}}, nil)

	res, err := f.svc.Find(ctx, NewActor(active.ID, valueobject.RoleProfessional), models.SearchEntityRequests, models.SearchFieldAddress, "ленина")
	require.NoError(t, err)
	assert.Len(t, res.Requests, 1)

	_, err = f.svc.Find(ctx, NewActor(unverified.ID, valueobject.RoleProfessional), models.SearchEntityRequests, models.SearchFieldAddress, "ленина")
	assert.True(t, apperror.IsForbidden(err))

	_, err = f.svc.Find(ctx, adminActor, models.SearchEntityRequests, models.SearchFieldAddress, "ленина")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.svc.Find(ctx, adminActor, "orders", models.SearchFieldAddress, "")
	assert.True(t, apperror.IsValidation(err))
}
