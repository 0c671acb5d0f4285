package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tickitpro/ticket-service/internal/auth"
	"github.com/tickitpro/ticket-service/internal/config"
	"github.com/tickitpro/ticket-service/internal/domain"
	"github.com/tickitpro/ticket-service/internal/events"
	"github.com/tickitpro/ticket-service/internal/repository"
	apperrors "github.com/tickitpro/ticket-service/pkg/util"
)

// UserService orchestrates the user record lifecycle: registration, login,
// reads, partial updates and removal, with email-uniqueness enforcement and
// department-reference resolution.
type UserService struct {
	users       repository.UserRepository
	departments *DepartmentService
	resets      repository.PasswordResetRepository
	dispatcher  events.Dispatcher
	tokenMgr    *auth.TokenManager
	bcryptCost  int
	resetTTL    time.Duration
}

// UserDependencies encapsulates collaborator requirements for the service.
type UserDependencies struct {
	UserRepo          repository.UserRepository
	Departments       *DepartmentService
	PasswordResetRepo repository.PasswordResetRepository
	Dispatcher        events.Dispatcher
}

// NewUserService builds the service.
func NewUserService(cfg config.Config, deps UserDependencies) *UserService {
	return &UserService{
		users:       deps.UserRepo,
		departments: deps.Departments,
		resets:      deps.PasswordResetRepo,
		dispatcher:  deps.Dispatcher,
		tokenMgr:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost:  cfg.Auth.BcryptCost,
		resetTTL:    time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
	}
}

// UserRegisterInput describes a registration request.
type UserRegisterInput struct {
	FirstName    string
	LastName     string
	Email        string
	Password     string
	Role         string
	DepartmentID *string
}

// UserUpdateInput describes a partial update. Nil fields are absent; a
// present but blank (whitespace-only) value also leaves the field unchanged.
type UserUpdateInput struct {
	ID           string
	FirstName    *string
	LastName     *string
	Password     *string
	Role         *string
	DepartmentID *string
	Email        *string
}

// Register creates a new user account and issues an access token. The email
// must not be bound to an existing user.
func (s *UserService) Register(ctx context.Context, input UserRegisterInput) (*domain.UserProfile, string, time.Time, error) {
	role, ok := domain.ParseRole(input.Role)
	if !ok {
		return nil, "", time.Time{}, apperrors.NewInvalidInput("unknown role", map[string]any{"role": input.Role})
	}

	email := normalizeEmail(input.Email)
	if err := s.EmailAvailable(ctx, email); err != nil {
		return nil, "", time.Time{}, err
	}

	var departmentID *string
	if input.DepartmentID != nil && strings.TrimSpace(*input.DepartmentID) != "" {
		dept, err := s.departments.GetByID(ctx, strings.TrimSpace(*input.DepartmentID))
		if err != nil {
			return nil, "", time.Time{}, err
		}
		departmentID = &dept.ID
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		DepartmentID: departmentID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// the unique index backstops the pre-check above
		if apperrors.IsUniqueViolation(err) {
			return nil, "", time.Time{}, apperrors.NewDuplicateEmail(email)
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:   events.EventUserRegistered,
		UserID: user.ID,
		Payload: events.UserRegisteredPayload{
			Email:        user.Email,
			Role:         user.Role,
			DepartmentID: user.DepartmentID,
		},
	})

	profile := user.Profile()
	return &profile, token, exp, nil
}

// EmailAvailable fails when the email is already bound to a user.
func (s *UserService) EmailAvailable(ctx context.Context, email string) error {
	_, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return apperrors.NewDuplicateEmail(normalizeEmail(email))
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return apperrors.MapError(err)
}

// Login authenticates a user by email and password. Unknown email and
// mismatched password both report not-found so the response does not reveal
// which credential was wrong.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewNotFound("user", nil)
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewNotFound("user", nil)
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}

// ListAll returns every persisted user as a sanitized profile, in store
// order.
func (s *UserService) ListAll(ctx context.Context) ([]domain.UserProfile, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	profiles := make([]domain.UserProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Profile())
	}
	return profiles, nil
}

// FindByID returns the sanitized profile for the given user id.
func (s *UserService) FindByID(ctx context.Context, id string) (*domain.UserProfile, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	profile := user.Profile()
	return &profile, nil
}

// Remove deletes the user with the given id.
func (s *UserService) Remove(ctx context.Context, id string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return apperrors.MapError(err)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventUserRemoved,
		UserID:  id,
		Payload: events.UserRemovedPayload{Email: user.Email},
	})
	return nil
}

// Update applies a partial update to a stored user. All field checks run
// against a single loaded copy of the record; the aggregate is persisted with
// one explicit store write. Concurrent writers are last-writer-wins.
func (s *UserService) Update(ctx context.Context, input UserUpdateInput) (*domain.UserProfile, error) {
	user, err := s.users.GetByID(ctx, input.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": input.ID})
		}
		return nil, apperrors.MapError(err)
	}

	var changed []string

	if value, ok := presentField(input.FirstName); ok {
		user.FirstName = value
		changed = append(changed, "first_name")
	}
	if value, ok := presentField(input.LastName); ok {
		user.LastName = value
		changed = append(changed, "last_name")
	}
	if value, ok := presentField(input.Password); ok {
		hash, err := auth.HashPassword(value, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
		changed = append(changed, "password")
	}
	if value, ok := presentField(input.Role); ok {
		role, ok := domain.ParseRole(value)
		if !ok {
			return nil, apperrors.NewInvalidInput("unknown role", map[string]any{"role": value})
		}
		user.Role = role
		changed = append(changed, "role")
	}
	if value, ok := presentField(input.DepartmentID); ok {
		dept, err := s.departments.GetByID(ctx, value)
		if err != nil {
			return nil, err
		}
		user.DepartmentID = &dept.ID
		changed = append(changed, "department_id")
	}
	if value, ok := presentField(input.Email); ok {
		email := normalizeEmail(value)
		if email != user.Email {
			if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing.ID != user.ID {
				return nil, apperrors.NewDuplicateEmail(email)
			} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.MapError(err)
			}
			user.Email = email
			changed = append(changed, "email")
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewDuplicateEmail(user.Email)
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": input.ID})
		}
		return nil, apperrors.MapError(err)
	}

	if len(changed) > 0 {
		s.publishEvent(ctx, events.Event{
			Type:    events.EventUserUpdated,
			UserID:  user.ID,
			Payload: events.UserUpdatedPayload{ChangedFields: changed},
		})
	}

	profile := user.Profile()
	return &profile, nil
}

// RequestPasswordReset persists a single-use reset token for the account.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) (*repository.PasswordResetToken, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.MapError(err)
	}

	token := &repository.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, apperrors.MapError(err)
	}
	return token, nil
}

// ConfirmPasswordReset validates the reset token and updates the password.
func (s *UserService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("reset token", nil)
		}
		return apperrors.MapError(err)
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return apperrors.NewInvalidInput("reset token expired or already used", nil)
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.resets.MarkUsed(ctx, token.ID); err != nil {
		return apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:   events.EventUserPasswordChanged,
		UserID: user.ID,
	})
	return nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:   events.EventUserPasswordChanged,
		UserID: user.ID,
	})
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *UserService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *UserService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// presentField reports whether an optional request field carries a usable
// value. Absent (nil) and blank-after-trim both mean "no change".
func presentField(field *string) (string, bool) {
	if field == nil {
		return "", false
	}
	trimmed := strings.TrimSpace(*field)
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
