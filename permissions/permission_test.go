package permissions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reservo/permissions"
)

func TestGet(t *testing.T) {
	data := permissions.Get()
	require.NotNil(t, data)

	tests := []struct {
		name   string
		path   string
		method string
		skip   bool
		roles  []string
	}{
		{name: "guest search", path: "/v1/restaurant-booking/tables/search", method: "POST", skip: true},
		{name: "guest booking with trailing slash", path: "/v1/restaurant-booking/bookings/", method: "POST", skip: true},
		{name: "guest chat", path: "/v1/restaurant-booking/chat/stream", method: "post", skip: true},
		{name: "guest ends chat", path: "/v1/restaurant-booking/chat/sessions/{id}", method: "DELETE", skip: true},
		{name: "staff list", path: "/v1/restaurant-booking/bookings", method: "GET", roles: []string{"superadmin", "admin", "staff"}},
		{name: "admin delete", path: "/v1/restaurant-booking/tables/{id}", method: "DELETE", roles: []string{"superadmin", "admin"}},
		{name: "unlisted route", path: "/v1/restaurant-booking/secret", method: "GET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			permission := data.FindPermissions(tt.path, tt.method)

			assert.Equal(t, tt.skip, permission.Skip)
			assert.Equal(t, tt.roles, permission.Permissions)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("duplicate route", func(t *testing.T) {
		_, err := permissions.Load([]byte(`{"endpoints":[
			{"path":"/v1/tables","method":"GET","skip":true},
			{"path":"/v1/tables/","method":"get","skip":false}
		]}`))

		assert.ErrorContains(t, err, "GET /v1/tables")
	})

	t.Run("malformed document", func(t *testing.T) {
		_, err := permissions.Load([]byte(`{"endpoints":`))

		assert.Error(t, err)
	})

	t.Run("global skip", func(t *testing.T) {
		data, err := permissions.Load([]byte(`{"skip":true,"endpoints":[]}`))

		require.NoError(t, err)
		assert.True(t, data.Skip)
	})
}
