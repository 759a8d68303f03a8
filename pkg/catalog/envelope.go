package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/Sternrassler/storefront-client/pkg/client"
	"github.com/Sternrassler/storefront-client/pkg/pagination"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

// API performs GET requests against the storefront API. *client.Client
// implements it.
type API interface {
	Get(ctx context.Context, endpoint string, query url.Values) (*http.Response, error)
}

// envelope is the {success, message, data} wrapper used by most endpoints.
// Success is a pointer so a body without the field is not mistaken for a
// failure report.
type envelope struct {
	Success *bool           `json:"success"`
	Message *string         `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// get performs one request and returns the status code and body. Transport
// failures are returned as *pagination.Error.
func get(ctx context.Context, api API, endpoint string, query url.Values) (int, []byte, error) {
	resp, err := api.Get(ctx, endpoint, query)
	if err != nil {
		return 0, nil, transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, transportError(fmt.Errorf("read body: %w", err))
	}
	return resp.StatusCode, body, nil
}

// transportError maps client failures onto the page failure taxonomy.
func transportError(err error) *pagination.Error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorClass == client.ErrorClassTimeout {
		return pagination.TimeoutError(err)
	}
	return pagination.AsError(err)
}

// decodeEnvelope unwraps an enveloped response into out.
//
// A parseable envelope with success=false is a service failure carrying the
// server message, whatever the HTTP status. Any other non-2xx response, and
// any 2xx body that does not decode, is a network failure.
func decodeEnvelope(status int, body []byte, out any) error {
	var env envelope
	parseErr := json.Unmarshal(body, &env)
	if parseErr == nil && env.Success == nil {
		parseErr = errors.New("missing success field")
	}

	if parseErr == nil && !*env.Success {
		msg := ""
		if env.Message != nil {
			msg = *env.Message
		}
		return pagination.ServiceError(status, msg)
	}

	if !isSuccess(status) {
		return statusError(status)
	}
	if parseErr != nil {
		return pagination.NetworkError(fmt.Errorf("decode envelope: %w", parseErr))
	}

	// No data field reads as data: null, an empty result.
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return pagination.NetworkError(fmt.Errorf("decode data: %w", err))
	}
	return nil
}

// decodeBare decodes an endpoint that answers without an envelope. Error
// bodies may still carry one.
func decodeBare(status int, body []byte, out any) error {
	if !isSuccess(status) {
		var env envelope
		if json.Unmarshal(body, &env) == nil && env.Success != nil && !*env.Success {
			msg := ""
			if env.Message != nil {
				msg = *env.Message
			}
			return pagination.ServiceError(status, msg)
		}
		return statusError(status)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return pagination.NetworkError(fmt.Errorf("decode body: %w", err))
	}
	return nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func statusError(status int) *pagination.Error {
	perr := pagination.NetworkError(fmt.Errorf("unexpected status %d %s", status, http.StatusText(status)))
	perr.StatusCode = status
	return perr
}
