package core

// Endpoint describes one route of the auth API independent of any framework.
type Endpoint struct {
	Path      string
	Method    string
	Protected bool   // requires a verified bearer token
	Roles     []Role // when set, the verified identity must hold one of these
	Metadata  EndpointMetadata
}

type EndpointMetadata struct {
	OperationID string
	Description string
}

// ErrorResponse represents an error response structure
type ErrorResponse struct {
	Error string `json:"error"`
}
