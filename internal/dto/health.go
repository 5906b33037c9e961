package dto

// HealthResponse is returned by the health endpoints. Checks maps each
// dependency (currently only "store") to "ok" or its error.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
