package pgtrigger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-nacelle/nacelle/v2"
)

// Responder delivers outcomes to the orchestrator's callback URL. Delivery
// is best-effort: a transport failure is logged and swallowed so it can
// never mask the outcome it was carrying.
type Responder struct {
	client *http.Client
	logger nacelle.Logger
}

func NewResponder(logger nacelle.Logger) *Responder {
	return &Responder{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

func (r *Responder) Respond(ctx context.Context, request CustomResourceRequest, outcome Outcome) {
	if request.ResponseURL == "" {
		return
	}

	response := CustomResourceResponse{
		Status:             outcome.Status,
		Reason:             outcome.Reason,
		PhysicalResourceID: outcome.PhysicalID,
		StackID:            request.StackID,
		RequestID:          request.RequestID,
		LogicalResourceID:  request.LogicalResourceID,
	}

	if err := r.put(ctx, request.ResponseURL, response); err != nil {
		r.logger.WarningWithFields(nacelle.LogFields{
			"requestId": request.RequestID,
			"status":    string(outcome.Status),
			"error":     err,
		}, "Failed to report outcome to orchestrator")
		return
	}

	r.logger.InfoWithFields(nacelle.LogFields{
		"requestId":  request.RequestID,
		"status":     string(outcome.Status),
		"physicalId": outcome.PhysicalID,
	}, "Reported outcome to orchestrator")
}

func (r *Responder) put(ctx context.Context, url string, response CustomResourceResponse) error {
	payload, err := json.Marshal(response)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	// Pre-signed callback URLs reject an explicit content type.
	req.Header.Set("Content-Type", "")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d from callback URL", resp.StatusCode)
	}

	return nil
}
