package http

// APIResponse is the envelope every endpoint responds with.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationError describes a single failed request field.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_GT"`
	Field   string                 `json:"field,omitempty" example:"shares"`
	Message string                 `json:"message,omitempty" example:"shares must be greater than 0"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
