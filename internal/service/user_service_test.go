package service

import (
	"testing"

	"lesson-smart-go/pkg/token"

	"github.com/stretchr/testify/require"
)

func newTestUserService() (UserService, *stubUserRepo, *token.JWTManager) {
	userRepo := &stubUserRepo{}
	jwtManager := token.NewJWTManager("test-secret", 2, 7)
	return NewUserService(userRepo, jwtManager), userRepo, jwtManager
}

func TestRegisterAndLogin(t *testing.T) {
	svc, userRepo, jwtManager := newTestUserService()

	user, err := svc.Register("alice", "s3cret")
	require.NoError(t, err)
	require.Equal(t, "USER", user.Role)
	require.NotEqual(t, "s3cret", user.Password, "密码必须以哈希形式存储")
	require.Len(t, userRepo.users, 1)

	access, refresh, err := svc.Login("alice", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, refresh)

	claims, err := jwtManager.VerifyToken(access)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Username)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _, _ := newTestUserService()

	_, err := svc.Register("bob", "pw")
	require.NoError(t, err)
	_, err = svc.Register("bob", "pw2")
	require.Error(t, err)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, _ := newTestUserService()

	_, err := svc.Register("carol", "right")
	require.NoError(t, err)

	_, _, err = svc.Login("carol", "wrong")
	require.Error(t, err)

	_, _, err = svc.Login("nobody", "pw")
	require.Error(t, err)
}

func TestRefreshToken(t *testing.T) {
	svc, _, jwtManager := newTestUserService()

	_, err := svc.Register("dave", "pw")
	require.NoError(t, err)
	_, refresh, err := svc.Login("dave", "pw")
	require.NoError(t, err)

	newAccess, newRefresh, err := svc.RefreshToken(refresh)
	require.NoError(t, err)
	require.NotEmpty(t, newRefresh)

	claims, err := jwtManager.VerifyToken(newAccess)
	require.NoError(t, err)
	require.Equal(t, "dave", claims.Username)

	_, _, err = svc.RefreshToken("garbage")
	require.Error(t, err)
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	svc, userRepo, _ := newTestUserService()

	require.NoError(t, svc.EnsureAdmin("admin", "admin123"))
	require.Len(t, userRepo.users, 1)
	require.Equal(t, "ADMIN", userRepo.users[0].Role)

	// 重复调用不再创建
	require.NoError(t, svc.EnsureAdmin("admin", "admin123"))
	require.Len(t, userRepo.users, 1)

	// 未配置时跳过
	svc2, userRepo2, _ := newTestUserService()
	require.NoError(t, svc2.EnsureAdmin("", ""))
	require.Empty(t, userRepo2.users)
}

func TestGetProfile(t *testing.T) {
	svc, _, _ := newTestUserService()
	_, err := svc.Register("erin", "pw")
	require.NoError(t, err)

	user, err := svc.GetProfile("erin")
	require.NoError(t, err)
	require.Equal(t, "erin", user.Username)

	_, err = svc.GetProfile("ghost")
	require.Error(t, err)
}
