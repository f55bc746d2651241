package handlers

import (
	"encoding/json"
	"net/http"
)

// StatusResponse reports which build is serving traffic.
type StatusResponse struct {
	Version      string `json:"version"`
	DeploymentID string `json:"deployment_id"`
}

// Status returns a handler exposing the running version and deployment.
// Deploy tooling polls it to confirm a rollout landed.
func Status(version, deploymentID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(StatusResponse{
			Version:      version,
			DeploymentID: deploymentID,
		})
	}
}
