package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Register(ctx, RegisterInput{Name: " Grace ", Email: " Grace@Shop.Test ", Password: "hopper1"})
	require.NoError(t, err)
	assert.Equal(t, "grace@shop.test", sess.User.Email)
	assert.Equal(t, "Grace", sess.User.Name)
	assert.False(t, sess.User.IsAdmin)
	assert.NotEqual(t, "hopper1", sess.User.Password)
	assert.NotEmpty(t, sess.Token)

	_, err = f.svc.Register(ctx, RegisterInput{Name: "Again", Email: "grace@shop.test", Password: "hopper1"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "User already exists", PublicMessage(err))

	_, err = f.svc.Register(ctx, RegisterInput{Name: "Short", Email: "short@shop.test", Password: "123"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "password must be at least 6 characters", PublicMessage(err))

	login, err := f.svc.Login(ctx, LoginInput{Email: "GRACE@shop.test", Password: "hopper1"})
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, login.User.ID)

	_, err = f.svc.Login(ctx, LoginInput{Email: "grace@shop.test", Password: "wrong"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Invalid email or password", PublicMessage(err))

	_, err = f.svc.Login(ctx, LoginInput{Email: "nobody@shop.test", Password: "hopper1"})
	assert.Equal(t, "Invalid email or password", PublicMessage(err))
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, err := f.svc.tokens.IssueToken(f.customer)
	require.NoError(t, err)

	u, err := f.svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, f.customer.ID, u.ID)

	_, err = f.svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Not authorized, no token", PublicMessage(err))

	_, err = f.svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)

	ghost := *f.customer
	ghost.ID = "deleted-user"
	token, err = f.svc.tokens.IssueToken(&ghost)
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticate_UsesCurrentRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, err := f.svc.tokens.IssueToken(f.admin)
	require.NoError(t, err)

	demoted := *f.admin
	demoted.IsAdmin = false
	require.NoError(t, f.mem.UpdateUser(ctx, &demoted))

	u, err := f.svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.False(t, u.IsAdmin)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.UpdateProfile(ctx, f.customer, ProfileInput{
		Phone: strPtr("555-0100"),
		City:  strPtr("Paris"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, "555-0100", u.Phone)
	assert.Equal(t, "Paris", u.City)

	_, err = f.svc.UpdateProfile(ctx, f.customer, ProfileInput{Email: strPtr("BOB@shop.test")})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.svc.UpdateProfile(ctx, f.customer, ProfileInput{Email: strPtr("not-an-email")})
	assert.ErrorIs(t, err, ErrValidation)

	me, err := f.svc.Me(ctx, f.customer)
	require.NoError(t, err)
	assert.Equal(t, "ada@shop.test", me.Email)
	assert.Equal(t, "Paris", me.City)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.ChangePassword(ctx, f.customer, PasswordInput{CurrentPassword: "wrong1", NewPassword: "newpass1"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Current password is incorrect", PublicMessage(err))

	err = f.svc.ChangePassword(ctx, f.customer, PasswordInput{CurrentPassword: "secret1", NewPassword: "new"})
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, f.svc.ChangePassword(ctx, f.customer, PasswordInput{CurrentPassword: "secret1", NewPassword: "newpass1"}))

	_, err = f.svc.Login(ctx, LoginInput{Email: "ada@shop.test", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.Login(ctx, LoginInput{Email: "ada@shop.test", Password: "newpass1"})
	assert.NoError(t, err)
}
