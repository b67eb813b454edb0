package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"reservo/config"
	"reservo/infras/jwt"
	jwtMocks "reservo/infras/jwt/mocks"
	"reservo/infras/otel/mocks"
	"reservo/internal/domains/auth/model/dto"
	"reservo/internal/domains/auth/service"
	userMocks "reservo/internal/domains/user/mocks"
	userModel "reservo/internal/domains/user/model"
	"reservo/shared/constant"
	"reservo/shared/failure"
	gModel "reservo/shared/model"
	"reservo/shared/timezone"
)

// "password" hashed with bcrypt.
const passwordHash = "$2a$10$92IXUNpkjO0rOQ5byMi.Ye4oKoEa3Ro9llC/.og/at2.uheWG/igi"

func staff(level string, active bool) userModel.User {
	return userModel.User{
		ID:       "user-id-123",
		Email:    "host@reservo.vn",
		Password: passwordHash,
		Level:    level,
		Active:   active,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  "system",
			ModifiedBy: "system",
		},
	}
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockUserRepo := userMocks.NewMockUser(ctrl)
	mockJWT := jwtMocks.NewMockJWT(ctrl)

	svc := service.New(mockUserRepo, &config.Config{}, mocks.NewOtel(), mockJWT)

	tests := []struct {
		name      string
		req       dto.LoginRequest
		setupMock func()
		wantCode  int
	}{
		{
			name: "staff signs in",
			req:  dto.LoginRequest{Email: " Host@reservo.vn", Password: "password"},
			setupMock: func() {
				user := staff(constant.RoleStaff, true)

				mockUserRepo.EXPECT().GetByEmail(gomock.Any(), "host@reservo.vn").Return(user, nil)
				mockJWT.EXPECT().
					GenerateTokenPair(gomock.Any(), user.ID, user.Email, user.Level).
					Return(&jwt.TokenPair{AccessToken: "access-token", RefreshToken: "refresh-token"}, nil)
				mockUserRepo.EXPECT().TouchLastLogin(gomock.Any(), "user-id-123", gomock.Any()).Return(nil)
			},
		},
		{
			name: "last login failure does not block sign in",
			req:  dto.LoginRequest{Email: "host@reservo.vn", Password: "password"},
			setupMock: func() {
				user := staff(constant.RoleAdmin, true)

				mockUserRepo.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(user, nil)
				mockJWT.EXPECT().
					GenerateTokenPair(gomock.Any(), user.ID, user.Email, user.Level).
					Return(&jwt.TokenPair{AccessToken: "access-token", RefreshToken: "refresh-token"}, nil)
				mockUserRepo.EXPECT().TouchLastLogin(gomock.Any(), "user-id-123", gomock.Any()).Return(errors.New("db down"))
			},
		},
		{
			name: "unknown email",
			req:  dto.LoginRequest{Email: "nobody@reservo.vn", Password: "password"},
			setupMock: func() {
				mockUserRepo.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(userModel.User{}, nil)
			},
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "wrong password",
			req:  dto.LoginRequest{Email: "host@reservo.vn", Password: "wrong"},
			setupMock: func() {
				mockUserRepo.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(staff(constant.RoleStaff, true), nil)
			},
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "deactivated account",
			req:  dto.LoginRequest{Email: "host@reservo.vn", Password: "password"},
			setupMock: func() {
				mockUserRepo.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(staff(constant.RoleStaff, false), nil)
			},
			wantCode: http.StatusForbidden,
		},
		{
			name: "non staff level",
			req:  dto.LoginRequest{Email: "host@reservo.vn", Password: "password"},
			setupMock: func() {
				mockUserRepo.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(staff(constant.RoleUser, true), nil)
			},
			wantCode: http.StatusForbidden,
		},
		{
			name: "repository failure",
			req:  dto.LoginRequest{Email: "host@reservo.vn", Password: "password"},
			setupMock: func() {
				mockUserRepo.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(userModel.User{}, errors.New("db down"))
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			result, err := svc.Login(context.Background(), tt.req)

			if tt.wantCode != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, "access-token", result.AccessToken)
			assert.Equal(t, "user-id-123", result.Staff.ID)
			assert.NotNil(t, result.Staff.LastLogin)
		})
	}
}

func TestAuthService_CreateStaff(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockUserRepo := userMocks.NewMockUser(ctrl)

	svc := service.New(mockUserRepo, &config.Config{}, mocks.NewOtel(), jwtMocks.NewMockJWT(ctrl))

	req := dto.CreateStaffRequest{Email: "host@reservo.vn", Password: "password1"}

	tests := []struct {
		name      string
		ctx       context.Context
		setupMock func()
		wantCode  int
	}{
		{
			name: "created by admin",
			ctx:  context.WithValue(context.Background(), constant.ContextKeyUserID, "admin-1"),
			setupMock: func() {
				mockUserRepo.EXPECT().Insert(gomock.Any(), gomock.Cond(func(x any) bool {
					user, ok := x.(userModel.User)

					return ok && user.CreatedBy == "admin-1" && user.Level == constant.RoleStaff && user.Password != req.Password
				})).Return(nil)
			},
		},
		{
			name: "created by seed",
			ctx:  context.Background(),
			setupMock: func() {
				mockUserRepo.EXPECT().Insert(gomock.Any(), gomock.Cond(func(x any) bool {
					user, ok := x.(userModel.User)

					return ok && user.CreatedBy == constant.ContextSystem
				})).Return(nil)
			},
		},
		{
			name: "email taken",
			ctx:  context.Background(),
			setupMock: func() {
				mockUserRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(userModel.ErrEmailTaken)
			},
			wantCode: http.StatusConflict,
		},
		{
			name: "insert failure",
			ctx:  context.Background(),
			setupMock: func() {
				mockUserRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("db down"))
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			err := svc.CreateStaff(tt.ctx, req)

			if tt.wantCode != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestAuthService_RefreshToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockJWT := jwtMocks.NewMockJWT(ctrl)

	svc := service.New(userMocks.NewMockUser(ctrl), &config.Config{}, mocks.NewOtel(), mockJWT)

	tests := []struct {
		name      string
		token     string
		setupMock func()
		wantErr   bool
	}{
		{
			name:  "successful token refresh",
			token: "valid-refresh-token",
			setupMock: func() {
				mockJWT.EXPECT().
					RefreshTokens(gomock.Any(), "valid-refresh-token").
					Return(&jwt.TokenPair{AccessToken: "new-access-token", RefreshToken: "new-refresh-token"}, nil)
			},
		},
		{
			name:  "invalid refresh token",
			token: "invalid-refresh-token",
			setupMock: func() {
				mockJWT.EXPECT().
					RefreshTokens(gomock.Any(), "invalid-refresh-token").
					Return(nil, jwt.ErrInvalidToken)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			result, err := svc.RefreshToken(context.Background(), dto.RefreshTokenRequest{RefreshToken: tt.token})

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, http.StatusUnauthorized, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, "new-access-token", result.AccessToken)
			assert.Equal(t, "new-refresh-token", result.RefreshToken)
		})
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockUserRepo := userMocks.NewMockUser(ctrl)

	svc := service.New(mockUserRepo, &config.Config{}, mocks.NewOtel(), jwtMocks.NewMockJWT(ctrl))

	tests := []struct {
		name      string
		req       dto.ChangePasswordRequest
		setupMock func()
		wantCode  int
	}{
		{
			name: "successful password change",
			req:  dto.ChangePasswordRequest{CurrentPassword: "password", NewPassword: "newpassword123"},
			setupMock: func() {
				mockUserRepo.EXPECT().GetByID(gomock.Any(), "user-id-123").Return(staff(constant.RoleStaff, true), nil)
				mockUserRepo.EXPECT().UpdatePassword(gomock.Any(), "user-id-123", gomock.Any()).Return(nil)
			},
		},
		{
			name: "unknown staff",
			req:  dto.ChangePasswordRequest{CurrentPassword: "password", NewPassword: "newpassword123"},
			setupMock: func() {
				mockUserRepo.EXPECT().GetByID(gomock.Any(), "user-id-123").Return(userModel.User{}, nil)
			},
			wantCode: http.StatusNotFound,
		},
		{
			name: "wrong current password",
			req:  dto.ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "newpassword123"},
			setupMock: func() {
				mockUserRepo.EXPECT().GetByID(gomock.Any(), "user-id-123").Return(staff(constant.RoleStaff, true), nil)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "update failure",
			req:  dto.ChangePasswordRequest{CurrentPassword: "password", NewPassword: "newpassword123"},
			setupMock: func() {
				mockUserRepo.EXPECT().GetByID(gomock.Any(), "user-id-123").Return(staff(constant.RoleStaff, true), nil)
				mockUserRepo.EXPECT().UpdatePassword(gomock.Any(), "user-id-123", gomock.Any()).Return(errors.New("db down"))
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			err := svc.ChangePassword(context.Background(), tt.req, "user-id-123")

			if tt.wantCode != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
		})
	}
}
