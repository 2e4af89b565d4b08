package service

import (
	"context"
	"testing"
	"time"

	"inkwell/internal/apperror"
	"inkwell/internal/repository"
	"inkwell/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestRegisterFirstUserBecomesStaff(t *testing.T) {
	f := newFixture(t)
	svc := NewAuthService(repository.NewUserRepository(f.db), testSecret, time.Hour)
	ctx := context.Background()

	first, err := svc.Register(ctx, RegisterRequest{Username: "editor", Password: "longpassword"})
	require.NoError(t, err)
	assert.True(t, first.User.IsStaff)
	assert.Equal(t, "Bearer", first.TokenType)
	assert.Equal(t, int64(3600), first.ExpiresIn)

	claims, err := util.ValidateToken(first.AccessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, claims.UserID)
	assert.True(t, claims.IsStaff)

	second, err := svc.Register(ctx, RegisterRequest{Username: "reader", Password: "longpassword"})
	require.NoError(t, err)
	assert.False(t, second.User.IsStaff)

	_, err = svc.Register(ctx, RegisterRequest{Username: "reader", Password: "otherpassword"})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestLoginAndMe(t *testing.T) {
	f := newFixture(t)
	svc := NewAuthService(repository.NewUserRepository(f.db), testSecret, time.Hour)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterRequest{Username: "kim", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Username: "kim", Password: "wrong-horse"})
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))

	_, err = svc.Login(ctx, LoginRequest{Username: "nobody", Password: "x"})
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))

	res, err := svc.Login(ctx, LoginRequest{Username: "kim", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)

	me, err := svc.Me(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "kim", me.Username)
	assert.NotNil(t, me.LastLogin)

	_, err = svc.Me(ctx, 999)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestContactSubmitAndList(t *testing.T) {
	f := newFixture(t)
	svc := NewContactService(repository.NewContactRepository(f.db))
	ctx := context.Background()

	_, err := svc.Submit(ctx, ContactRequest{Email: "not-an-email", Subject: "hi", Message: "x"})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	c, err := svc.Submit(ctx, ContactRequest{Email: " reader@example.com ", Subject: "Typo", Message: "page 3"})
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", c.Email)

	items, total, err := svc.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, items, 1)
}
