package service

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/flashdash-service/internal/domain"
)

func seedUser(t *testing.T, repo *stubUserRepo, name, email string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{Name: name, Email: email, PasswordHash: "x", Role: role}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestUserService_List_OrderedByID(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(testAuthConfig(), repo)

	seedUser(t, repo, "A", "a@x.com", domain.RoleAdmin)
	seedUser(t, repo, "B", "b@x.com", domain.RoleAgent)
	seedUser(t, repo, "C", "c@x.com", domain.RoleViewer)

	users, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}
	for i := 1; i < len(users); i++ {
		if users[i-1].ID >= users[i].ID {
			t.Fatalf("users not ordered by id: %v", users)
		}
	}
}

func TestUserService_UpdateRole(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(testAuthConfig(), repo)
	user := seedUser(t, repo, "A", "a@x.com", domain.RoleViewer)

	if err := svc.UpdateRole(context.Background(), user.ID, domain.RoleAgent); err != nil {
		t.Fatalf("UpdateRole returned error: %v", err)
	}
	stored, _ := repo.GetByID(context.Background(), user.ID)
	if stored.Role != domain.RoleAgent {
		t.Fatalf("role not updated, got %s", stored.Role)
	}
}

func TestUserService_UpdateRole_InvalidRoleLeavesRowUnchanged(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(testAuthConfig(), repo)
	user := seedUser(t, repo, "A", "a@x.com", domain.RoleViewer)

	for _, role := range []domain.Role{"superuser", "user", ""} {
		err := svc.UpdateRole(context.Background(), user.ID, role)
		if domainCode(t, err) != "VALIDATION_FAILED" {
			t.Fatalf("expected validation failure for role %q, got %v", role, err)
		}
	}

	stored, _ := repo.GetByID(context.Background(), user.ID)
	if stored.Role != domain.RoleViewer {
		t.Fatalf("row changed after rejected update: %s", stored.Role)
	}
}

func TestUserService_UpdateRole_UserNotFound(t *testing.T) {
	svc := NewUserService(testAuthConfig(), newStubUserRepo())

	err := svc.UpdateRole(context.Background(), 99, domain.RoleAdmin)
	if domainCode(t, err) != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestUserService_Create(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(testAuthConfig(), repo)

	user, err := svc.Create(context.Background(), "Agent X", "agent@x.com", "secret", domain.RoleAgent)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret")); err != nil {
		t.Fatalf("password not hashed correctly: %v", err)
	}

	if _, err := svc.Create(context.Background(), "", "x@x.com", "p", domain.RoleAgent); domainCode(t, err) != "VALIDATION_FAILED" {
		t.Fatalf("expected validation failure for missing name, got %v", err)
	}
	if _, err := svc.Create(context.Background(), "B", "b@x.com", "p", "superuser"); domainCode(t, err) != "VALIDATION_FAILED" {
		t.Fatalf("expected validation failure for unknown role, got %v", err)
	}
}

func TestUserService_Create_DuplicateThenRetry(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(testAuthConfig(), repo)

	if _, err := svc.Create(context.Background(), "A", "a@x.com", "p", domain.RoleAgent); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := svc.Create(context.Background(), "B", "A@X.com", "p", domain.RoleAgent); domainCode(t, err) != "CONFLICT" {
		t.Fatalf("expected conflict, got %v", err)
	}

	// Retrying with a corrected email succeeds and the user is listed.
	if _, err := svc.Create(context.Background(), "B", "b@x.com", "p", domain.RoleAgent); err != nil {
		t.Fatalf("retry after fixing email failed: %v", err)
	}
	users, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users after retry, got %d", len(users))
	}
}

func TestUserService_Update(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(testAuthConfig(), repo)
	user := seedUser(t, repo, "A", "a@x.com", domain.RoleAgent)

	newName := "Renamed"
	newPassword := "new-pass"
	updated, err := svc.Update(context.Background(), user.ID, UpdateInput{Name: &newName, Password: &newPassword})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Name != "Renamed" {
		t.Fatalf("name not updated: %s", updated.Name)
	}

	stored, _ := repo.GetByID(context.Background(), user.ID)
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("new-pass")); err != nil {
		t.Fatalf("password not re-hashed: %v", err)
	}
	if stored.Email != "a@x.com" {
		t.Fatalf("untouched field changed: %s", stored.Email)
	}
}

func TestUserService_Update_RequiresAField(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(testAuthConfig(), repo)
	user := seedUser(t, repo, "A", "a@x.com", domain.RoleAgent)

	_, err := svc.Update(context.Background(), user.ID, UpdateInput{})
	if domainCode(t, err) != "VALIDATION_FAILED" {
		t.Fatalf("expected validation failure for empty patch, got %v", err)
	}
}

func TestUserService_Update_NotFound(t *testing.T) {
	svc := NewUserService(testAuthConfig(), newStubUserRepo())

	name := "X"
	_, err := svc.Update(context.Background(), 404, UpdateInput{Name: &name})
	if domainCode(t, err) != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestUserService_Delete(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(testAuthConfig(), repo)
	user := seedUser(t, repo, "A", "a@x.com", domain.RoleAgent)

	if err := svc.Delete(context.Background(), user.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := svc.Delete(context.Background(), user.ID); domainCode(t, err) != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND on second delete, got %v", err)
	}
}
