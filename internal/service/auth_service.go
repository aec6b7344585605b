package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/household-backend/internal/domain/valueobject"
	"github.com/ignatzorin/household-backend/internal/logger"
	"github.com/ignatzorin/household-backend/internal/models"
	"github.com/ignatzorin/household-backend/internal/pkg/apperror"
	"github.com/ignatzorin/household-backend/internal/storage"
	"github.com/ignatzorin/household-backend/internal/validation"
)

// AuthRepository описывает зависимости AuthService от слоя хранилища.
type AuthRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ExistsAdmin(ctx context.Context) (bool, error)
}

// AuthService инкапсулирует регистрацию и аутентификацию.
type AuthService struct {
	repo         AuthRepository
	services     ServiceReader
	documents    storage.DocumentStore
	tokenManager *TokenManager
}

// RegisterInput - общие поля регистрации.
type RegisterInput struct {
	Username    string
	Password    string
	Email       *string
	PhoneNumber *string
	Address     *string
	Pincode     *string
}

// RegisterProfessionalInput - регистрация специалиста с документом.
type RegisterProfessionalInput struct {
	RegisterInput
	ServiceID    uuid.UUID
	Experience   *string
	DocumentName string
	Document     io.Reader
}

// AuthResult - итог входа.
type AuthResult struct {
	User      *models.User `json:"user"`
	TokenPair *TokenPair   `json:"tokens"`
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(repo AuthRepository, services ServiceReader, documents storage.DocumentStore, tokenManager *TokenManager) *AuthService {
	return &AuthService{
		repo:         repo,
		services:     services,
		documents:    documents,
		tokenManager: tokenManager,
	}
}

// RegisterCustomer регистрирует заказчика. Заказчик подтверждён сразу.
func (s *AuthService) RegisterCustomer(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validateRegistration(in); err != nil {
		return nil, apperror.Validation(err)
	}

	user, err := s.newUser(in, valueobject.RoleCustomer)
	if err != nil {
		return nil, err
	}
	user.IsVerified = true

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// RegisterProfessional регистрирует специалиста. До проверки администратором вход закрыт.
func (s *AuthService) RegisterProfessional(ctx context.Context, in RegisterProfessionalInput) (*models.User, error) {
	if err := validateRegistration(in.RegisterInput); err != nil {
		return nil, apperror.Validation(err)
	}
	if err := validation.ValidateExperience(in.Experience); err != nil {
		return nil, apperror.Validation(err)
	}
	if in.Document == nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "документ специалиста обязателен")
	}

	head := make([]byte, validation.DocumentSniffLen)
	n, err := io.ReadFull(in.Document, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, apperror.Wrap(err, apperror.ErrCodeBadRequest, "не удалось прочитать документ")
	}
	head = head[:n]
	if err := validation.ValidatePDF(in.DocumentName, head); err != nil {
		return nil, apperror.Validation(err)
	}

	if _, err := s.services.GetByID(ctx, in.ServiceID); err != nil {
		return nil, err
	}

	// Имя занято: не сохраняем документ зря.
	if _, err := s.repo.GetByUsername(ctx, strings.TrimSpace(in.Username)); err == nil {
		return nil, apperror.ErrUsernameTaken
	} else if !apperror.IsNotFound(err) {
		return nil, err
	}

	user, err := s.newUser(in.RegisterInput, valueobject.RoleProfessional)
	if err != nil {
		return nil, err
	}
	user.ID = uuid.New()
	user.ServiceID = &in.ServiceID
	user.Experience = in.Experience

	key, err := s.documents.Save(ctx, user.ID, in.DocumentName, io.MultiReader(bytes.NewReader(head), in.Document))
	if err != nil {
		if err == storage.ErrTooLarge {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, "документ превышает допустимый размер")
		}
		return nil, fmt.Errorf("auth service: сохранение документа %w", err)
	}
	user.DocumentPath = &key

	if err := s.repo.Create(ctx, user); err != nil {
		if delErr := s.documents.Delete(ctx, key); delErr != nil {
			logger.Log.WithFields(logrus.Fields{
				"key":   key,
				"error": delErr.Error(),
			}).Warn("auth service: не удалось удалить документ после неудачной регистрации")
		}
		return nil, err
	}
	return user, nil
}

// Login проверяет учётные данные и возвращает токены.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	if err := checkCanSignIn(user); err != nil {
		return nil, err
	}

	tokens, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return nil, fmt.Errorf("auth service: выпуск токенов %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("auth service: вход выполнен")

	return &AuthResult{User: user, TokenPair: tokens}, nil
}

// Refresh выпускает новую пару токенов по refresh токену.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	userID, err := s.tokenManager.ParseRefresh(refreshToken)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnauthorized, "недействительный refresh токен")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, err
	}
	if err := checkCanSignIn(user); err != nil {
		return nil, err
	}

	tokens, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return nil, fmt.Errorf("auth service: выпуск токенов %w", err)
	}
	return &AuthResult{User: user, TokenPair: tokens}, nil
}

// Me возвращает текущего пользователя.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.repo.GetByID(ctx, userID)
}

// EnsureAdmin создаёт администратора, если его ещё нет.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	exists, err := s.repo.ExistsAdmin(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth service: не удалось захешировать пароль: %w", err)
	}

	admin := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         valueobject.RoleAdmin,
		IsVerified:   true,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		return err
	}

	logger.Log.WithField("username", username).Info("auth service: создан администратор")
	return nil
}

func (s *AuthService) newUser(in RegisterInput, role valueobject.Role) (*models.User, error) {
	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth service: не удалось захешировать пароль: %w", err)
	}

	var email *string
	if in.Email != nil && *in.Email != "" {
		lower := strings.ToLower(strings.TrimSpace(*in.Email))
		email = &lower
	}

	return &models.User{
		Username:     strings.TrimSpace(in.Username),
		PasswordHash: string(passHash),
		Email:        email,
		PhoneNumber:  in.PhoneNumber,
		Address:      in.Address,
		Pincode:      in.Pincode,
		Role:         role,
	}, nil
}

func validateRegistration(in RegisterInput) error {
	if err := validation.ValidateUsername(in.Username); err != nil {
		return err
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return err
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return err
	}
	if err := validation.ValidatePhone(in.PhoneNumber); err != nil {
		return err
	}
	if err := validation.ValidateAddress(in.Address); err != nil {
		return err
	}
	return validation.ValidatePincode(in.Pincode)
}

func checkCanSignIn(user *models.User) error {
	if user.IsBlocked {
		return apperror.ErrUserBlocked
	}
	if user.Role == valueobject.RoleProfessional && (!user.IsVerified || user.ServiceID == nil) {
		return apperror.New(apperror.ErrCodeForbidden, "профиль специалиста ещё не подтверждён администратором")
	}
	return nil
}
