package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/tickitpro/ticket-service/internal/auth"
	"github.com/tickitpro/ticket-service/internal/config"
	"github.com/tickitpro/ticket-service/internal/domain"
	"github.com/tickitpro/ticket-service/internal/events"
	"github.com/tickitpro/ticket-service/internal/repository"
	apperrors "github.com/tickitpro/ticket-service/pkg/util"
)

type stubUserRepo struct {
	users     map[string]*domain.User
	order     []string
	seq       int
	createErr error
	updateErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	r.users[user.ID] = &stored
	r.order = append(r.order, user.ID)
	return nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *user
	stored.UpdatedAt = time.Now()
	r.users[user.ID] = &stored
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	for i, stored := range r.order {
		if stored == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, id := range r.order {
		if r.users[id].Email == email {
			copied := *r.users[id]
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *stubUserRepo) ListAll(_ context.Context) ([]domain.User, error) {
	var result []domain.User
	for _, id := range r.order {
		result = append(result, *r.users[id])
	}
	return result, nil
}

type stubDepartmentRepo struct {
	departments map[string]*domain.Department
	seq         int
}

func newStubDepartmentRepo() *stubDepartmentRepo {
	return &stubDepartmentRepo{departments: make(map[string]*domain.Department)}
}

func (r *stubDepartmentRepo) Create(_ context.Context, dept *domain.Department) error {
	r.seq++
	dept.ID = fmt.Sprintf("dept-%d", r.seq)
	now := time.Now()
	dept.CreatedAt = now
	dept.UpdatedAt = now
	stored := *dept
	r.departments[dept.ID] = &stored
	return nil
}

func (r *stubDepartmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	dept, ok := r.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *dept
	return &copied, nil
}

func (r *stubDepartmentRepo) ListAll(_ context.Context) ([]domain.Department, error) {
	var result []domain.Department
	for _, dept := range r.departments {
		result = append(result, *dept)
	}
	return result, nil
}

type stubResetRepo struct {
	tokens map[string]*repository.PasswordResetToken
	seq    int
}

func newStubResetRepo() *stubResetRepo {
	return &stubResetRepo{tokens: make(map[string]*repository.PasswordResetToken)}
}

func (r *stubResetRepo) Create(_ context.Context, token *repository.PasswordResetToken) error {
	r.seq++
	token.ID = fmt.Sprintf("reset-%d", r.seq)
	token.CreatedAt = time.Now()
	stored := *token
	r.tokens[token.Token] = &stored
	return nil
}

func (r *stubResetRepo) GetByToken(_ context.Context, tokenStr string) (*repository.PasswordResetToken, error) {
	token, ok := r.tokens[tokenStr]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *token
	return &copied, nil
}

func (r *stubResetRepo) MarkUsed(_ context.Context, id string) error {
	for _, token := range r.tokens {
		if token.ID == id {
			now := time.Now()
			token.UsedAt = &now
			return nil
		}
	}
	return pgx.ErrNoRows
}

type serviceFixture struct {
	svc        *UserService
	users      *stubUserRepo
	depts      *stubDepartmentRepo
	resets     *stubResetRepo
	dispatcher events.Dispatcher
}

func newFixture() *serviceFixture {
	users := newStubUserRepo()
	depts := newStubDepartmentRepo()
	resets := newStubResetRepo()
	dispatcher := events.NewInMemoryDispatcher()
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTLMinutes:   15,
			PasswordResetTTLMinutes: 30,
			BcryptCost:              bcrypt.MinCost,
		},
	}
	svc := NewUserService(cfg, UserDependencies{
		UserRepo:          users,
		Departments:       NewDepartmentService(depts, nil),
		PasswordResetRepo: resets,
		Dispatcher:        dispatcher,
	})
	return &serviceFixture{svc: svc, users: users, depts: depts, resets: resets, dispatcher: dispatcher}
}

func (f *serviceFixture) register(t *testing.T, email string) *domain.UserProfile {
	t.Helper()
	profile, _, _, err := f.svc.Register(context.Background(), UserRegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Password:  "s3cret!pass",
		Role:      "EMPLOYEE",
	})
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	return profile
}

func requireDomainError(t *testing.T, err error, code string) *apperrors.DomainError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %T: %v", err, err)
	}
	if domainErr.Code != code {
		t.Fatalf("expected code %s, got %s (%v)", code, domainErr.Code, err)
	}
	return domainErr
}

func TestRegisterAndFindRoundTrip(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	profile, token, _, err := f.svc.Register(ctx, UserRegisterInput{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "grace@example.com",
		Password:  "compilers",
		Role:      "ADMIN",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if profile.Role != domain.RoleAdmin {
		t.Fatalf("role = %s, want ADMIN", profile.Role)
	}

	claims, err := auth.NewTokenManager("test-secret", 15).ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != profile.ID {
		t.Fatalf("token subject = %s, want %s", claims.UserID, profile.ID)
	}

	found, err := f.svc.FindByID(ctx, profile.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if diff := cmp.Diff(profile, found); diff != "" {
		t.Fatalf("round-trip mismatch (-registered +found):\n%s", diff)
	}

	// plaintext must never reach the store
	stored := f.users.users[profile.ID]
	if stored.PasswordHash == "compilers" || stored.PasswordHash == "" {
		t.Fatalf("password stored incorrectly: %q", stored.PasswordHash)
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	f := newFixture()
	profile := f.register(t, "  Ada@Example.COM ")
	if profile.Email != "ada@example.com" {
		t.Fatalf("email = %q, want normalized lowercase", profile.Email)
	}
}

func TestRegisterDuplicateEmailLeavesStoreUnchanged(t *testing.T) {
	f := newFixture()
	f.register(t, "ada@example.com")

	_, _, _, err := f.svc.Register(context.Background(), UserRegisterInput{
		FirstName: "Other",
		LastName:  "Person",
		Email:     "ADA@example.com",
		Password:  "another-pass",
		Role:      "SUPPORT",
	})
	domainErr := requireDomainError(t, err, "DUPLICATE_EMAIL")
	if domainErr.Details["email"] != "ada@example.com" {
		t.Fatalf("details = %v", domainErr.Details)
	}
	if len(f.users.users) != 1 {
		t.Fatalf("store changed: %d users", len(f.users.users))
	}
}

func TestRegisterUniqueIndexBackstop(t *testing.T) {
	f := newFixture()
	// simulate a concurrent insert winning between pre-check and insert
	f.users.createErr = &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}

	_, _, _, err := f.svc.Register(context.Background(), UserRegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "s3cret!pass",
		Role:      "EMPLOYEE",
	})
	requireDomainError(t, err, "DUPLICATE_EMAIL")
}

func TestRegisterUnknownRole(t *testing.T) {
	f := newFixture()
	_, _, _, err := f.svc.Register(context.Background(), UserRegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "s3cret!pass",
		Role:      "SUPERUSER",
	})
	requireDomainError(t, err, "INVALID_INPUT")
}

func TestRegisterUnknownDepartment(t *testing.T) {
	f := newFixture()
	missing := "dept-404"
	_, _, _, err := f.svc.Register(context.Background(), UserRegisterInput{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.com",
		Password:     "s3cret!pass",
		Role:         "EMPLOYEE",
		DepartmentID: &missing,
	})
	requireDomainError(t, err, "NOT_FOUND")
}

func TestRegisterResolvesDepartment(t *testing.T) {
	f := newFixture()
	dept := &domain.Department{Name: "Support"}
	if err := f.depts.Create(context.Background(), dept); err != nil {
		t.Fatalf("seed department: %v", err)
	}

	profile, _, _, err := f.svc.Register(context.Background(), UserRegisterInput{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.com",
		Password:     "s3cret!pass",
		Role:         "SUPPORT",
		DepartmentID: &dept.ID,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if profile.DepartmentID == nil || *profile.DepartmentID != dept.ID {
		t.Fatalf("department not bound: %v", profile.DepartmentID)
	}
}

func TestLogin(t *testing.T) {
	f := newFixture()
	profile := f.register(t, "ada@example.com")
	ctx := context.Background()

	user, token, _, err := f.svc.Login(ctx, "ADA@example.com ", "s3cret!pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != profile.ID || token == "" {
		t.Fatalf("unexpected login result: %v", user)
	}

	// both failure modes report not-found, revealing nothing
	if _, _, _, err := f.svc.Login(ctx, "ada@example.com", "wrong-pass"); err != nil {
		requireDomainError(t, err, "NOT_FOUND")
	} else {
		t.Fatal("login with wrong password succeeded")
	}
	if _, _, _, err := f.svc.Login(ctx, "nobody@example.com", "s3cret!pass"); err != nil {
		requireDomainError(t, err, "NOT_FOUND")
	} else {
		t.Fatal("login with unknown email succeeded")
	}
}

func TestListAllPreservesStoreOrder(t *testing.T) {
	f := newFixture()
	first := f.register(t, "first@example.com")
	second := f.register(t, "second@example.com")

	profiles, err := f.svc.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(profiles) != 2 || profiles[0].ID != first.ID || profiles[1].ID != second.ID {
		t.Fatalf("unexpected listing: %+v", profiles)
	}
}

func TestFindByIDUnknown(t *testing.T) {
	f := newFixture()
	_, err := f.svc.FindByID(context.Background(), "user-404")
	requireDomainError(t, err, "NOT_FOUND")
}

func TestRemove(t *testing.T) {
	f := newFixture()
	profile := f.register(t, "ada@example.com")
	ctx := context.Background()

	var removed []string
	f.dispatcher.Subscribe(events.EventUserRemoved, func(_ context.Context, e events.Event) error {
		removed = append(removed, e.UserID)
		return nil
	})

	if err := f.svc.Remove(ctx, profile.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := f.svc.FindByID(ctx, profile.ID); err == nil {
		t.Fatal("user still readable after Remove")
	}
	if len(removed) != 1 || removed[0] != profile.ID {
		t.Fatalf("removal event not published: %v", removed)
	}

	err := f.svc.Remove(ctx, profile.ID)
	requireDomainError(t, err, "NOT_FOUND")
}

func TestUpdatePartialLeavesOtherFieldsIntact(t *testing.T) {
	f := newFixture()
	profile := f.register(t, "ada@example.com")

	newFirst := "Augusta"
	updated, err := f.svc.Update(context.Background(), UserUpdateInput{
		ID:        profile.ID,
		FirstName: &newFirst,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.FirstName != "Augusta" {
		t.Fatalf("first name = %q", updated.FirstName)
	}

	want := *profile
	want.FirstName = "Augusta"
	ignoreTimes := cmp.FilterPath(func(p cmp.Path) bool {
		last := p.Last().String()
		return last == ".CreatedAt" || last == ".UpdatedAt"
	}, cmp.Ignore())
	if diff := cmp.Diff(&want, updated, ignoreTimes); diff != "" {
		t.Fatalf("other fields changed (-want +got):\n%s", diff)
	}
}

func TestUpdateBlankFieldsAreNoOps(t *testing.T) {
	f := newFixture()
	profile := f.register(t, "ada@example.com")

	blank := "   "
	empty := ""
	updated, err := f.svc.Update(context.Background(), UserUpdateInput{
		ID:        profile.ID,
		FirstName: &blank,
		LastName:  &empty,
		Email:     &blank,
		Role:      &empty,
		Password:  &blank,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	ignoreTimes := cmp.FilterPath(func(p cmp.Path) bool {
		last := p.Last().String()
		return last == ".CreatedAt" || last == ".UpdatedAt"
	}, cmp.Ignore())
	if diff := cmp.Diff(profile, updated, ignoreTimes); diff != "" {
		t.Fatalf("blank values mutated the record (-before +after):\n%s", diff)
	}
}

func TestUpdateEmailConflict(t *testing.T) {
	f := newFixture()
	f.register(t, "taken@example.com")
	profile := f.register(t, "ada@example.com")

	taken := "TAKEN@example.com"
	_, err := f.svc.Update(context.Background(), UserUpdateInput{ID: profile.ID, Email: &taken})
	requireDomainError(t, err, "DUPLICATE_EMAIL")

	if f.users.users[profile.ID].Email != "ada@example.com" {
		t.Fatal("store changed despite conflict")
	}
}

func TestUpdateEmailToOwnEmailIsNoOp(t *testing.T) {
	f := newFixture()
	profile := f.register(t, "ada@example.com")

	var published []events.Event
	f.dispatcher.Subscribe(events.EventUserUpdated, func(_ context.Context, e events.Event) error {
		published = append(published, e)
		return nil
	})

	same := "ADA@example.com"
	updated, err := f.svc.Update(context.Background(), UserUpdateInput{ID: profile.ID, Email: &same})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Email != "ada@example.com" {
		t.Fatalf("email = %q", updated.Email)
	}
	if len(published) != 0 {
		t.Fatalf("no-op update published events: %v", published)
	}
}

func TestUpdateRejectsUnknownRole(t *testing.T) {
	f := newFixture()
	profile := f.register(t, "ada@example.com")

	bad := "WIZARD"
	_, err := f.svc.Update(context.Background(), UserUpdateInput{ID: profile.ID, Role: &bad})
	requireDomainError(t, err, "INVALID_INPUT")
}

func TestUpdateUnknownUser(t *testing.T) {
	f := newFixture()
	name := "Ada"
	_, err := f.svc.Update(context.Background(), UserUpdateInput{ID: "user-404", FirstName: &name})
	requireDomainError(t, err, "NOT_FOUND")
}

func TestUpdateBindsDepartment(t *testing.T) {
	f := newFixture()
	profile := f.register(t, "ada@example.com")
	dept := &domain.Department{Name: "Engineering"}
	if err := f.depts.Create(context.Background(), dept); err != nil {
		t.Fatalf("seed department: %v", err)
	}

	updated, err := f.svc.Update(context.Background(), UserUpdateInput{ID: profile.ID, DepartmentID: &dept.ID})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.DepartmentID == nil || *updated.DepartmentID != dept.ID {
		t.Fatalf("department not bound: %v", updated.DepartmentID)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture()
	f.register(t, "ada@example.com")
	ctx := context.Background()

	token, err := f.svc.RequestPasswordReset(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}

	if err := f.svc.ConfirmPasswordReset(ctx, token.Token, "fresh-pass"); err != nil {
		t.Fatalf("ConfirmPasswordReset: %v", err)
	}
	if _, _, _, err := f.svc.Login(ctx, "ada@example.com", "fresh-pass"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, _, _, err := f.svc.Login(ctx, "ada@example.com", "s3cret!pass"); err == nil {
		t.Fatal("old password still valid")
	}

	// single-use
	err = f.svc.ConfirmPasswordReset(ctx, token.Token, "yet-another")
	requireDomainError(t, err, "INVALID_INPUT")
}

func TestPasswordResetExpiredToken(t *testing.T) {
	f := newFixture()
	f.register(t, "ada@example.com")
	ctx := context.Background()

	token, err := f.svc.RequestPasswordReset(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	f.resets.tokens[token.Token].ExpiresAt = time.Now().Add(-time.Minute)

	err = f.svc.ConfirmPasswordReset(ctx, token.Token, "fresh-pass")
	requireDomainError(t, err, "INVALID_INPUT")
}

func TestChangePassword(t *testing.T) {
	f := newFixture()
	profile := f.register(t, "ada@example.com")
	ctx := context.Background()

	err := f.svc.ChangePassword(ctx, profile.ID, "wrong-current", "fresh-pass")
	requireDomainError(t, err, "UNAUTHORIZED")

	if err := f.svc.ChangePassword(ctx, profile.ID, "s3cret!pass", "fresh-pass"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, _, _, err := f.svc.Login(ctx, "ada@example.com", "fresh-pass"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}
