package permissions

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed permissions.json
var permissionsData []byte

// Permission lists the roles allowed on one route. Skip makes the route public.
type Permission struct {
	Permissions []string `json:"permissions"`
	Path        string   `json:"path"`
	Method      string   `json:"method"`
	Skip        bool     `json:"skip"`
}

type PermissionData struct {
	Endpoints []Permission `json:"endpoints"`
	// Skip turns role checks off for every route.
	Skip bool `json:"skip"`

	index map[string]Permission
}

func key(path, method string) string {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}

	return strings.ToUpper(method) + " " + path
}

// FindPermissions looks up a route pattern. Trailing slashes are ignored, and
// an unlisted route returns the zero Permission, which requires a signed in user.
func (r *PermissionData) FindPermissions(path, method string) Permission {
	return r.index[key(path, method)]
}

// Load decodes a permissions document and rejects duplicate routes.
func Load(data []byte) (*PermissionData, error) {
	var permissions PermissionData

	if err := json.Unmarshal(data, &permissions); err != nil {
		return nil, fmt.Errorf("failed to decode permissions: %w", err)
	}

	permissions.index = make(map[string]Permission, len(permissions.Endpoints))

	for _, endpoint := range permissions.Endpoints {
		k := key(endpoint.Path, endpoint.Method)
		if _, ok := permissions.index[k]; ok {
			return nil, fmt.Errorf("duplicate permission for %s", k)
		}

		permissions.index[k] = endpoint
	}

	return &permissions, nil
}

// Get loads the embedded permissions. It returns nil on a broken document,
// which makes the RBAC middleware refuse every protected route.
func Get() *PermissionData {
	permissions, err := Load(permissionsData)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load embedded permissions")

		return nil
	}

	log.Info().Int("endpoints", len(permissions.Endpoints)).Msg("Successfully loaded embedded permissions")

	return permissions
}
