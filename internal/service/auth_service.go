package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/model"
	appErr "github.com/Ruthwik2610/Rancho-Cordova-AI/internal/pkg/errors"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/pkg/jwt"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/pkg/password"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/repo"
)

type AuthService struct {
	users     *repo.UserRepo
	jwtSecret []byte
	jwtTTL    time.Duration
}

func NewAuthService(users *repo.UserRepo, secret []byte, ttl time.Duration) *AuthService {
	return &AuthService{users: users, jwtSecret: secret, jwtTTL: ttl}
}

func (s *AuthService) Login(ctx context.Context, username, plainPassword string) (*model.User, string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, "", appErr.ErrUnauthorized
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return nil, "", appErr.ErrUnauthorized
	}
	token, err := jwt.GenerateToken(user.ID, user.Username, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// CreateUser backs the useradd admin command; there is no self-service
// registration surface.
func (s *AuthService) CreateUser(ctx context.Context, username, plainPassword string) (*model.User, error) {
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, err
	}
	now := time.Now().Unix()
	user := &model.User{
		ID:           newID(),
		Username:     username,
		PasswordHash: hash,
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func newID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
