package services

import (
	"fmt"
	"sort"

	"github.com/lborres/silid/core"
)

// Operation IDs of the base endpoints. HTTP adapters bind their handlers by these.
const (
	OpRegister       = "registerWithEmailAndPassword"
	OpLogin          = "loginWithEmailAndPassword"
	OpLogout         = "logout"
	OpMe             = "getCurrentUser"
	OpGetProfile     = "getProfile"
	OpUpdateProfile  = "updateProfile"
	OpChangePassword = "changePassword"
	OpSetRole        = "setUserRole"
	OpSetActive      = "setUserActive"
)

// BaseEndpoints returns framework-agnostic endpoint descriptions
// for all core authentication endpoints.
//
// Logout is deliberately public: it only needs the token it deletes, and
// repeating it with an already revoked token must still succeed.
func BaseEndpoints() []core.Endpoint {
	admin := []core.Role{core.RoleAdmin}

	return []core.Endpoint{
		{
			Path:   "/register",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID: OpRegister,
				Description: "Create an account and return its first token",
			},
		},
		{
			Path:   "/login",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID: OpLogin,
				Description: "Sign in using email and password",
			},
		},
		{
			Path:   "/logout",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID: OpLogout,
				Description: "Invalidate the presented token",
			},
		},
		{
			Path:      "/me",
			Method:    "GET",
			Protected: true,
			Metadata: core.EndpointMetadata{
				OperationID: OpMe,
				Description: "Resolve the presented token to its user",
			},
		},
		{
			Path:      "/profile",
			Method:    "GET",
			Protected: true,
			Metadata: core.EndpointMetadata{
				OperationID: OpGetProfile,
				Description: "Get the current user's full profile",
			},
		},
		{
			Path:      "/profile",
			Method:    "PATCH",
			Protected: true,
			Metadata: core.EndpointMetadata{
				OperationID: OpUpdateProfile,
				Description: "Update allow-listed profile fields of the current user",
			},
		},
		{
			Path:      "/password",
			Method:    "POST",
			Protected: true,
			Metadata: core.EndpointMetadata{
				OperationID: OpChangePassword,
				Description: "Change the password and sign out every session",
			},
		},
		{
			Path:      "/users/:id/role",
			Method:    "PATCH",
			Protected: true,
			Roles:     admin,
			Metadata: core.EndpointMetadata{
				OperationID: OpSetRole,
				Description: "Change a user's role",
			},
		},
		{
			Path:      "/users/:id/active",
			Method:    "PATCH",
			Protected: true,
			Roles:     admin,
			Metadata: core.EndpointMetadata{
				OperationID: OpSetActive,
				Description: "Enable or disable a user account",
			},
		},
	}
}

// EndpointRegistry manages a collection of framework-agnostic endpoints
// and handles conflict detection for duplicate METHOD:PATH combinations.
type EndpointRegistry struct {
	// endpoints stores all registered endpoints keyed by "METHOD:PATH"
	endpoints map[string]*core.Endpoint
}

// NewEndpointRegistry creates a registry holding the given endpoints, or the
// base endpoints when none are given.
func NewEndpointRegistry(endpoints ...core.Endpoint) (*EndpointRegistry, error) {
	if len(endpoints) == 0 {
		endpoints = BaseEndpoints()
	}

	reg := &EndpointRegistry{
		endpoints: make(map[string]*core.Endpoint, len(endpoints)),
	}

	for i := range endpoints {
		if err := reg.register(&endpoints[i]); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

func endpointKey(ep *core.Endpoint) string {
	return fmt.Sprintf("%s:%s", ep.Method, ep.Path)
}

// register adds a single endpoint to the registry with conflict detection.
func (r *EndpointRegistry) register(ep *core.Endpoint) error {
	key := endpointKey(ep)

	if _, exists := r.endpoints[key]; exists {
		return fmt.Errorf("endpoint conflict: %s %s already registered", ep.Method, ep.Path)
	}
	if ep.Metadata.OperationID == "" {
		return fmt.Errorf("endpoint %s %s has no operation id", ep.Method, ep.Path)
	}

	r.endpoints[key] = ep
	return nil
}

// Endpoints returns every registered endpoint ordered by path then method.
func (r *EndpointRegistry) Endpoints() []*core.Endpoint {
	result := make([]*core.Endpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		result = append(result, ep)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Path != result[j].Path {
			return result[i].Path < result[j].Path
		}
		return result[i].Method < result[j].Method
	})
	return result
}
