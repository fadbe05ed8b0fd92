package repository

import (
	"context"
	"testing"

	"shopkeeper/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestProperty_StoredPasswordHashesVerify(t *testing.T) {
	resetTables(t)
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	properties := gopter.NewProperties(nil)

	properties.Property("stored hashes verify against the original password", prop.ForAll(
		func(email string, password string, name string) bool {
			_, _ = testDB.Exec("DELETE FROM users WHERE email = $1", email)

			hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
			if err != nil {
				t.Logf("Failed to hash password: %v", err)
				return false
			}

			user := &domain.User{
				ID:           uuid.New(),
				Name:         name,
				Email:        email,
				PasswordHash: string(hashedPassword),
				Role:         domain.RoleStaff,
			}
			if err := repo.Create(ctx, user); err != nil {
				t.Logf("Failed to create user: %v", err)
				return false
			}

			retrievedUser, err := repo.FindByEmail(ctx, email)
			if err != nil {
				t.Logf("Failed to find user: %v", err)
				return false
			}

			if retrievedUser.PasswordHash == password {
				t.Logf("Password was stored as plaintext!")
				return false
			}
			return bcrypt.CompareHashAndPassword([]byte(retrievedUser.PasswordHash), []byte(password)) == nil
		},
		gen.RegexMatch(`[a-z]{5,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestUserRepository_EmailIsUnique(t *testing.T) {
	resetTables(t)
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	first := &domain.User{ID: uuid.New(), Name: "Owner", Email: "admin@balaji.com", PasswordHash: "x", Role: domain.RoleAdmin}
	require.NoError(t, repo.Create(ctx, first))
	assert.False(t, first.CreatedAt.IsZero())

	second := &domain.User{ID: uuid.New(), Name: "Copy", Email: "admin@balaji.com", PasswordHash: "y", Role: domain.RoleStaff}
	assert.ErrorIs(t, repo.Create(ctx, second), ErrUserAlreadyExists)

	got, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, got.Role)

	_, err = repo.FindByEmail(ctx, "nobody@balaji.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
