package dto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"reservo/infras/jwt"
	"reservo/internal/domains/auth/model/dto"
	"reservo/shared/constant"
)

func TestCreateStaffRequest_ToUserModel(t *testing.T) {
	name := "Lan"

	tests := []struct {
		name      string
		req       dto.CreateStaffRequest
		wantLevel string
		wantEmail string
	}{
		{
			name:      "defaults to staff",
			req:       dto.CreateStaffRequest{Email: " Host@Reservo.vn ", Password: "password1", FullName: &name},
			wantLevel: constant.RoleStaff,
			wantEmail: "host@reservo.vn",
		},
		{
			name:      "admin kept",
			req:       dto.CreateStaffRequest{Email: "owner@reservo.vn", Password: "password1", Level: constant.RoleAdmin},
			wantLevel: constant.RoleAdmin,
			wantEmail: "owner@reservo.vn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := tt.req.ToUserModel("seed", "hashed")

			assert.NotEmpty(t, user.ID)
			assert.Equal(t, tt.wantEmail, user.Email)
			assert.Equal(t, tt.wantLevel, user.Level)
			assert.Equal(t, "hashed", user.Password)
			assert.True(t, user.Active)
			assert.Equal(t, "seed", user.CreatedBy)
		})
	}
}

func TestLoginResponse_FromTokenPair(t *testing.T) {
	tokenPair := &jwt.TokenPair{
		AccessToken:  "test-access-token",
		RefreshToken: "test-refresh-token",
		ExpiresIn:    900,
	}

	var response dto.LoginResponse
	response.FromTokenPair(tokenPair)

	assert.Equal(t, tokenPair.AccessToken, response.AccessToken)
	assert.Equal(t, tokenPair.RefreshToken, response.RefreshToken)
	assert.Equal(t, int64(900), response.ExpiresIn)
}

func TestRefreshTokenResponse_FromTokenPair(t *testing.T) {
	tokenPair := &jwt.TokenPair{
		AccessToken:  "new-access-token",
		RefreshToken: "new-refresh-token",
	}

	var response dto.RefreshTokenResponse
	response.FromTokenPair(tokenPair)

	assert.Equal(t, tokenPair.AccessToken, response.AccessToken)
	assert.Equal(t, tokenPair.RefreshToken, response.RefreshToken)
}
