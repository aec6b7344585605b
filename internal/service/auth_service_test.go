package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/household-backend/internal/domain/valueobject"
	"github.com/ignatzorin/household-backend/internal/pkg/apperror"
	"github.com/ignatzorin/household-backend/internal/storage"
)

// fakeDocuments - хранилище документов в памяти.
type fakeDocuments struct {
	files   map[string][]byte
	deleted []string
}

func newFakeDocuments() *fakeDocuments {
	return &fakeDocuments{files: make(map[string][]byte)}
}

func (f *fakeDocuments) Save(ctx context.Context, ownerID uuid.UUID, originalName string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	key := ownerID.String() + "/" + originalName
	f.files[key] = data
	return key, nil
}

func (f *fakeDocuments) Delete(ctx context.Context, key string) error {
	delete(f.files, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeDocuments) Fetch(ctx context.Context, key string) (*storage.Document, error) {
	data, ok := f.files[key]
	if !ok {
		return nil, apperror.New(apperror.ErrCodeNotFound, "документ не найден")
	}
	return &storage.Document{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

const testPDF = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n"

func newAuthFixture() (*AuthService, *fakeUsers, *fakeServices, *fakeDocuments, *TokenManager) {
	users := newFakeUsers()
	services := newFakeServices()
	docs := newFakeDocuments()
	tm := NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	return NewAuthService(users, services, docs, tm), users, services, docs, tm
}

func TestAuthService_RegisterCustomerAndLogin(t *testing.T) {
	svc, _, _, _, tm := newAuthFixture()
	ctx := context.Background()

	user, err := svc.RegisterCustomer(ctx, RegisterInput{
		Username: "ivan",
		Password: "Secret123",
		Address:  strPtr("Ленина 1"),
		Pincode:  strPtr("101000"),
	})
	require.NoError(t, err)
	assert.Equal(t, valueobject.RoleCustomer, user.Role)
	assert.True(t, user.IsVerified)
	assert.NotEqual(t, "Secret123", user.PasswordHash)

	res, err := svc.Login(ctx, "ivan", "Secret123")
	require.NoError(t, err)
	require.NotNil(t, res.TokenPair)

	id, role, err := tm.ParseAccess(res.TokenPair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
	assert.Equal(t, valueobject.RoleCustomer, role)

	_, err = svc.Login(ctx, "ivan", "wrong-password")
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "Secret123")
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_RegisterCustomer_Duplicate(t *testing.T) {
	svc, _, _, _, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.RegisterCustomer(ctx, RegisterInput{Username: "ivan", Password: "Secret123"})
	require.NoError(t, err)

	_, err = svc.RegisterCustomer(ctx, RegisterInput{Username: "ivan", Password: "Secret123"})
	assert.True(t, apperror.IsDuplicate(err))
}

func TestAuthService_RegisterCustomer_Validation(t *testing.T) {
	svc, _, _, _, _ := newAuthFixture()

	_, err := svc.RegisterCustomer(context.Background(), RegisterInput{Username: "ivan", Password: "weak"})
	assert.True(t, apperror.IsValidation(err))
}

func TestAuthService_RegisterProfessional(t *testing.T) {
	svc, users, services, docs, _ := newAuthFixture()
	ctx := context.Background()
	plumbing := services.add("Сантехника")

	user, err := svc.RegisterProfessional(ctx, RegisterProfessionalInput{
		RegisterInput: RegisterInput{Username: "petr", Password: "Secret123"},
		ServiceID:     plumbing.ID,
		Experience:    strPtr("10 лет"),
		DocumentName:  "resume.pdf",
		Document:      strings.NewReader(testPDF),
	})
	require.NoError(t, err)
	assert.Equal(t, valueobject.RoleProfessional, user.Role)
	assert.False(t, user.IsVerified)
	require.NotNil(t, user.DocumentPath)
	assert.Equal(t, testPDF, string(docs.files[*user.DocumentPath]))

	// до проверки администратором вход закрыт
	_, err = svc.Login(ctx, "petr", "Secret123")
	assert.True(t, apperror.IsForbidden(err))

	require.NoError(t, users.SetVerified(ctx, user.ID, true))
	res, err := svc.Login(ctx, "petr", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)
}

func TestAuthService_RegisterProfessional_RejectsBadInput(t *testing.T) {
	svc, _, services, docs, _ := newAuthFixture()
	ctx := context.Background()
	plumbing := services.add("Сантехника")

	_, err := svc.RegisterProfessional(ctx, RegisterProfessionalInput{
		RegisterInput: RegisterInput{Username: "petr", Password: "Secret123"},
		ServiceID:     plumbing.ID,
		DocumentName:  "resume.pdf",
		Document:      strings.NewReader("not a pdf at all"),
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.RegisterProfessional(ctx, RegisterProfessionalInput{
		RegisterInput: RegisterInput{Username: "petr", Password: "Secret123"},
		ServiceID:     uuid.New(),
		DocumentName:  "resume.pdf",
		Document:      strings.NewReader(testPDF),
	})
	assert.ErrorIs(t, err, apperror.ErrServiceNotFound)
	assert.Empty(t, docs.files)
}

func TestAuthService_LoginBlocked(t *testing.T) {
	svc, users, _, _, _ := newAuthFixture()
	ctx := context.Background()

	user, err := svc.RegisterCustomer(ctx, RegisterInput{Username: "ivan", Password: "Secret123"})
	require.NoError(t, err)
	require.NoError(t, users.SetBlocked(ctx, user.ID, true))

	_, err = svc.Login(ctx, "ivan", "Secret123")
	assert.ErrorIs(t, err, apperror.ErrUserBlocked)
}

func TestAuthService_Refresh(t *testing.T) {
	svc, _, _, _, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.RegisterCustomer(ctx, RegisterInput{Username: "ivan", Password: "Secret123"})
	require.NoError(t, err)
	res, err := svc.Login(ctx, "ivan", "Secret123")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, res.TokenPair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, refreshed.User.ID)

	_, err = svc.Refresh(ctx, res.TokenPair.AccessToken)
	assert.Error(t, err)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	svc, users, _, _, _ := newAuthFixture()
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "admin123"))
	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "admin123"))

	admins := 0
	for _, u := range users.users {
		if u.Role == valueobject.RoleAdmin {
			admins++
		}
	}
	assert.Equal(t, 1, admins)

	res, err := svc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, valueobject.RoleAdmin, res.User.Role)
}
