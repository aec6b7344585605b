package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/household-backend/internal/domain/valueobject"
	"github.com/ignatzorin/household-backend/internal/models"
	"github.com/ignatzorin/household-backend/internal/pkg/apperror"
)

// fakeUsers - in-memory пользователи.
type fakeUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[uuid.UUID]*models.User)}
}

func (f *fakeUsers) add(u *models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeUsers) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == user.Username {
			return apperror.ErrUsernameTaken
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = user
	return nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.ErrUserNotFound
}

func (f *fakeUsers) ExistsAdmin(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Role == valueobject.RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) SetVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || u.Role != valueobject.RoleProfessional {
		return apperror.ErrUserNotFound
	}
	u.IsVerified = verified
	return nil
}

func (f *fakeUsers) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || u.Role == valueobject.RoleAdmin {
		return apperror.ErrUserNotFound
	}
	u.IsBlocked = blocked
	return nil
}

func (f *fakeUsers) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return apperror.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUsers) ListProfessionalsByService(ctx context.Context, serviceID uuid.UUID) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.User{}
	for _, u := range f.users {
		if u.IsActiveProfessional() && *u.ServiceID == serviceID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsers) CountByRole(ctx context.Context) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var customers, professionals int
	for _, u := range f.users {
		switch u.Role {
		case valueobject.RoleCustomer:
			customers++
		case valueobject.RoleProfessional:
			professionals++
		}
	}
	return customers, professionals, nil
}

// fakeServices - in-memory каталог.
type fakeServices struct {
	services map[uuid.UUID]*models.Service
}

func newFakeServices() *fakeServices {
	return &fakeServices{services: make(map[uuid.UUID]*models.Service)}
}

func (f *fakeServices) add(name string) *models.Service {
	svc := &models.Service{ID: uuid.New(), Name: name, BasePrice: 1000}
	f.services[svc.ID] = svc
	return svc
}

func (f *fakeServices) GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	svc, ok := f.services[id]
	if !ok {
		return nil, apperror.ErrServiceNotFound
	}
	cp := *svc
	return &cp, nil
}

// fakeRequests повторяет условные обновления таблицы service_requests.
type fakeRequests struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]*models.ServiceRequest
	seq      int
	users    *fakeUsers
	services *fakeServices
}

func newFakeRequests(users *fakeUsers, services *fakeServices) *fakeRequests {
	return &fakeRequests{rows: make(map[uuid.UUID]*models.ServiceRequest), users: users, services: services}
}

func (f *fakeRequests) Create(ctx context.Context, req *models.ServiceRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if req.IsPendingBid() {
		for _, r := range f.rows {
			if r.IsPendingBid() && r.ServiceID == req.ServiceID && r.CustomerID == req.CustomerID &&
				*r.ProfessionalID == *req.ProfessionalID {
				return apperror.ErrDuplicateBid
			}
		}
	}

	f.seq++
	req.ID = uuid.New()
	req.Version = 1
	req.CreatedOn = time.Date(2024, 1, 1, 0, 0, f.seq, 0, time.UTC)
	cp := *req
	f.rows[req.ID] = &cp
	return nil
}

func (f *fakeRequests) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return nil, apperror.ErrRequestNotFound
	}
	cp := *r
	return &cp, nil
}

// current возвращает строку, если статус и версия совпадают с прочитанными.
func (f *fakeRequests) current(req *models.ServiceRequest, status valueobject.RequestStatus) (*models.ServiceRequest, error) {
	r, ok := f.rows[req.ID]
	if !ok {
		return nil, apperror.ErrRequestNotFound
	}
	if r.Status != status || r.Version != req.Version {
		return nil, apperror.ErrStaleRequest
	}
	return r, nil
}

func (f *fakeRequests) UpdateStatus(ctx context.Context, req *models.ServiceRequest, to valueobject.RequestStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.current(req, req.Status)
	if err != nil {
		return err
	}
	if to == valueobject.RequestStatusAccepted && r.ProfessionalID != nil &&
		f.acceptedTriple(r.ServiceID, r.CustomerID, *r.ProfessionalID, r.ID) {
		return apperror.ErrAlreadyAccepted
	}
	r.Status = to
	r.Version++
	*req = *r
	return nil
}

func (f *fakeRequests) UpdateDescription(ctx context.Context, req *models.ServiceRequest, description *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.current(req, valueobject.RequestStatusPending)
	if err != nil {
		return err
	}
	r.Description = description
	r.Version++
	*req = *r
	return nil
}

func (f *fakeRequests) AcceptBid(ctx context.Context, req *models.ServiceRequest) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.current(req, valueobject.RequestStatusPending)
	if err != nil {
		return 0, err
	}
	if !r.IsPendingBid() {
		return 0, apperror.ErrStaleRequest
	}
	if f.acceptedTriple(r.ServiceID, r.CustomerID, *r.ProfessionalID, r.ID) {
		return 0, apperror.ErrAlreadyAccepted
	}
	r.Status = valueobject.RequestStatusAccepted
	r.Version++

	var deleted int64
	for id, other := range f.rows {
		if id != r.ID && other.ServiceID == r.ServiceID &&
			other.RequestType == valueobject.RequestTypePublic && other.Status == valueobject.RequestStatusPending {
			delete(f.rows, id)
			deleted++
		}
	}
	*req = *r
	return deleted, nil
}

func (f *fakeRequests) Close(ctx context.Context, req *models.ServiceRequest, rating float64, feedback *string, closedOn time.Time) (*valueobject.RatingAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.current(req, valueobject.RequestStatusAccepted)
	if err != nil {
		return nil, err
	}

	f.users.mu.Lock()
	defer f.users.mu.Unlock()
	professional, ok := f.users.users[*r.ProfessionalID]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	agg := professional.Rating().Add(rating)
	professional.AvgRating = agg.Average
	professional.RatingCount = agg.Count

	r.Status = valueobject.RequestStatusClosed
	r.CustomerRating = &rating
	r.CustomerFeedback = feedback
	r.ClosedOn = &closedOn
	r.Version++
	*req = *r
	return &agg, nil
}

func (f *fakeRequests) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return apperror.ErrRequestNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeRequests) DeletePendingBid(ctx context.Context, req *models.ServiceRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.current(req, valueobject.RequestStatusPending)
	if err != nil {
		return err
	}
	delete(f.rows, r.ID)
	return nil
}

func (f *fakeRequests) ExistsPendingBid(ctx context.Context, serviceID, customerID, professionalID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.IsPendingBid() && r.ServiceID == serviceID && r.CustomerID == customerID && *r.ProfessionalID == professionalID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRequests) ExistsAccepted(ctx context.Context, serviceID, customerID, professionalID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acceptedTriple(serviceID, customerID, professionalID, uuid.Nil), nil
}

// acceptedTriple повторяет уникальный индекс uq_service_requests_accepted. Вызывается под f.mu.
func (f *fakeRequests) acceptedTriple(serviceID, customerID, professionalID, exclude uuid.UUID) bool {
	for _, r := range f.rows {
		if r.ID != exclude && r.Status == valueobject.RequestStatusAccepted && r.ServiceID == serviceID &&
			r.CustomerID == customerID && r.AssignedTo(professionalID) {
			return true
		}
	}
	return false
}

func (f *fakeRequests) List(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []models.RequestDetails{}
	for _, r := range f.rows {
		if !matchesFilter(r, filter) {
			continue
		}
		d := models.RequestDetails{ServiceRequest: *r}
		if svc, ok := f.services.services[r.ServiceID]; ok {
			d.ServiceName = svc.Name
		}
		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool {
		if filter.OrderByRating {
			ri, rj := ratingOf(out[i]), ratingOf(out[j])
			if ri != rj {
				return ri > rj
			}
		}
		return out[i].CreatedOn.Before(out[j].CreatedOn)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeRequests) CountByStatus(ctx context.Context, customerID, professionalID *uuid.UUID) (models.StatusCounts, error) {
	items, _ := f.List(ctx, models.RequestFilter{CustomerID: customerID, ProfessionalID: professionalID})
	var c models.StatusCounts
	for _, it := range items {
		switch it.Status {
		case valueobject.RequestStatusPending:
			c.Pending++
		case valueobject.RequestStatusAccepted:
			c.Accepted++
		case valueobject.RequestStatusRejected:
			c.Rejected++
		case valueobject.RequestStatusClosed:
			c.Closed++
		}
	}
	return c, nil
}

func (f *fakeRequests) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func ratingOf(d models.RequestDetails) float64 {
	if d.CustomerRating == nil {
		return -1
	}
	return *d.CustomerRating
}

func matchesFilter(r *models.ServiceRequest, f models.RequestFilter) bool {
	if f.CustomerID != nil && r.CustomerID != *f.CustomerID {
		return false
	}
	if f.ProfessionalID != nil && !r.AssignedTo(*f.ProfessionalID) {
		return false
	}
	if f.ServiceID != nil && r.ServiceID != *f.ServiceID {
		return false
	}
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	if f.RequestType != nil && r.RequestType != *f.RequestType {
		return false
	}
	if f.Assigned != nil && (r.ProfessionalID != nil) != *f.Assigned {
		return false
	}
	return true
}

// mockNotifier фиксирует отправленные события.
type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	args := m.Called(userID, event, data)
	return args.Error(0)
}

// fixture - связанный набор фейков с одной услугой, заказчиком и двумя специалистами.
type fixture struct {
	users    *fakeUsers
	services *fakeServices
	requests *fakeRequests
	notifier *mockNotifier
	svc      *RequestService

	service  *models.Service
	customer Actor
	profA    Actor
	profB    Actor
}

func newFixture() *fixture {
	users := newFakeUsers()
	services := newFakeServices()
	requests := newFakeRequests(users, services)

	plumbing := services.add("Сантехника")

	customer := users.add(&models.User{Username: "ivan", Role: valueobject.RoleCustomer, IsVerified: true})
	profA := users.add(&models.User{
		Username: "petr", Role: valueobject.RoleProfessional, IsVerified: true,
		ServiceID: &plumbing.ID, AvgRating: 4.0, RatingCount: 2,
	})
	profB := users.add(&models.User{
		Username: "oleg", Role: valueobject.RoleProfessional, IsVerified: true, ServiceID: &plumbing.ID,
	})

	n := new(mockNotifier)
	n.On("BroadcastToUser", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewRequestService(requests, users, services)
	svc.SetNotifier(n)
	svc.dispatch = func(fn func()) { fn() }

	return &fixture{
		users:    users,
		services: services,
		requests: requests,
		notifier: n,
		svc:      svc,
		service:  plumbing,
		customer: NewActor(customer.ID, valueobject.RoleCustomer),
		profA:    NewActor(profA.ID, valueobject.RoleProfessional),
		profB:    NewActor(profB.ID, valueobject.RoleProfessional),
	}
}
