/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package diagserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/typstudio/editorkit/log"
)

// StatusClientClosedRequest is the status written when the client went away during the check.
const StatusClientClosedRequest = 499

// HealthCheckResult maps component names to their health.
type HealthCheckResult = map[string]bool

// HealthCheck reports the health of the editor components.
type HealthCheck = func(ctx context.Context) (HealthCheckResult, error)

type healthCheckResponseData struct {
	Components map[string]bool `json:"components"`
}

type healthCheckHandler struct {
	check  HealthCheck
	logger log.FieldLogger
}

func (h *healthCheckHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	result, err := h.check(r.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			rw.WriteHeader(StatusClientClosedRequest)
			return
		}
		h.logger.Error("error while checking health", log.Error(err))
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	respData := healthCheckResponseData{Components: make(map[string]bool, len(result))}
	for name, healthy := range result {
		respData.Components[name] = healthy
		if !healthy {
			status = http.StatusServiceUnavailable
		}
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err = json.NewEncoder(rw).Encode(respData); err != nil {
		h.logger.Error("error while writing health-check response", log.Error(err))
	}
}
