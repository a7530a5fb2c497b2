package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/book-lending/internal/utils"
)

const wallet = "0xAbCdEf0123456789abcdef0123456789ABCDEF01"

func TestLoginCreatesUserOnce(t *testing.T) {
	f := newFixture(t)
	auth := NewAuthService(f.stores, "secret", 7*24*time.Hour, f.v, f.log)
	ctx := context.Background()

	first, err := auth.Login(ctx, LoginInput{WalletAddress: wallet})
	require.NoError(t, err)
	assert.Equal(t, "0xabcdef0123456789abcdef0123456789abcdef01", first.User.WalletAddress)
	assert.NotEmpty(t, first.Token)

	second, err := auth.Login(ctx, LoginInput{WalletAddress: "0xabcdef0123456789abcdef0123456789abcdef01"})
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)

	claims, err := utils.ParseAccessToken("secret", second.Token)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, claims.UserID)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestLoginValidation(t *testing.T) {
	f := newFixture(t)
	auth := NewAuthService(f.stores, "secret", time.Hour, f.v, f.log)

	_, err := auth.Login(context.Background(), LoginInput{WalletAddress: "0x123"})
	se := requireKind(t, err, KindValidation)
	assert.Equal(t, "Invalid wallet address format", se.Message)

	noSecret := NewAuthService(f.stores, "", time.Hour, f.v, f.log)
	_, err = noSecret.Login(context.Background(), LoginInput{WalletAddress: wallet})
	se = requireKind(t, err, KindInternal)
	assert.Equal(t, "Server configuration error", se.Message)
}

func TestVerify(t *testing.T) {
	f := newFixture(t)
	auth := NewAuthService(f.stores, "secret", time.Hour, f.v, f.log)
	ctx := context.Background()

	res, err := auth.Login(ctx, LoginInput{WalletAddress: wallet})
	require.NoError(t, err)

	u, err := auth.Verify(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, u.ID)

	_, err = auth.Verify(ctx, "")
	requireKind(t, err, KindUnauthorized)

	_, err = auth.Verify(ctx, "not-a-token")
	se := requireKind(t, err, KindForbidden)
	assert.Equal(t, "Invalid token", se.Message)

	f.mem.Users.Delete(ctx, res.User.ID)
	_, err = auth.Verify(ctx, res.Token)
	se = requireKind(t, err, KindNotFound)
	assert.Equal(t, "User not found", se.Message)
}
