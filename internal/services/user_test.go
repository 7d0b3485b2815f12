package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradingnft/backend/internal/utils"
)

func createRequest(email string) *CreateUserRequest {
	return &CreateUserRequest{
		Email:     email,
		Password:  "Password123!",
		FirstName: "John",
		LastName:  "Doe",
	}
}

func TestUserService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account, err := env.users.Create(ctx, createRequest("john@example.com"))
	require.NoError(t, err)
	assert.NotEmpty(t, account.ID)
	assert.Empty(t, account.Password)
	assert.False(t, account.IsActive)

	stored, err := env.stores.Accounts.FindByEmail(ctx, "john@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, utils.CheckPassword("Password123!", stored.Password))

	events := env.queue.Events()
	require.Len(t, events, 1)
	assert.Equal(t, TaskAccountCreated, events[0].Type)
	assert.Equal(t, "john@example.com", events[0].Email)
}

func TestUserService_CreateDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Create(ctx, createRequest("john@example.com"))
	require.NoError(t, err)

	_, err = env.users.Create(ctx, createRequest("john@example.com"))
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserService_CreatedAccountCanSignIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Create(ctx, createRequest("john@example.com"))
	require.NoError(t, err)

	_, err = env.auth.SignIn(ctx, "john@example.com", "Password123!")
	assert.NoError(t, err)
}

func TestUserService_Get(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created, err := env.users.Create(ctx, createRequest("john@example.com"))
	require.NoError(t, err)

	byID, err := env.users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "john@example.com", byID.Email)
	assert.Empty(t, byID.Password)

	byEmail, err := env.users.GetByEmail(ctx, "john@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = env.users.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = env.users.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_List(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		_, err := env.users.Create(ctx, createRequest(email))
		require.NoError(t, err)
	}

	page, err := env.users.List(ctx, &ListUsersQuery{Page: 1, Limit: 2, SortBy: "email", Order: "asc"})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "a@x.com", page.Items[0].Email)
	assert.Empty(t, page.Items[0].Password)
	assert.Equal(t, PageMeta{
		Page:            1,
		Limit:           2,
		TotalItems:      3,
		TotalPages:      2,
		HasNextPage:     true,
		HasPreviousPage: false,
	}, page.Meta)

	page, err = env.users.List(ctx, &ListUsersQuery{Page: 2, Limit: 2, SortBy: "email", Order: "asc"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.False(t, page.Meta.HasNextPage)
	assert.True(t, page.Meta.HasPreviousPage)
}

func TestNewPageMeta(t *testing.T) {
	assert.Equal(t, 0, NewPageMeta(1, 10, 0).TotalPages)
	assert.Equal(t, 1, NewPageMeta(1, 10, 10).TotalPages)
	assert.Equal(t, 2, NewPageMeta(1, 10, 11).TotalPages)
	assert.False(t, NewPageMeta(1, 10, 0).HasNextPage)
}

func TestUserService_Update(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created, err := env.users.Create(ctx, createRequest("john@example.com"))
	require.NoError(t, err)

	first := "Jane"
	active := true
	updated, err := env.users.Update(ctx, created.ID, &UpdateUserRequest{FirstName: &first, IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, "Jane", updated.FirstName)
	assert.Equal(t, "Doe", updated.LastName)
	assert.True(t, updated.IsActive)
	assert.Empty(t, updated.Password)

	_, err = env.users.Update(ctx, uuid.NewString(), &UpdateUserRequest{FirstName: &first})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created, err := env.users.Create(ctx, createRequest("john@example.com"))
	require.NoError(t, err)

	require.NoError(t, env.users.Delete(ctx, created.ID))
	assert.ErrorIs(t, env.users.Delete(ctx, created.ID), ErrUserNotFound)

	events := env.queue.Events()
	assert.Equal(t, TaskAccountDeleted, events[len(events)-1].Type)
}
