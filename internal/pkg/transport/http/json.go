package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

// ErrUnexpectedStatus is returned by GetJSON for non-2xx responses.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// maxErrorBody bounds how much of a failed response is quoted in errors.
const maxErrorBody = 512

// GetJSON issues a GET to url and decodes the JSON body into out.
func GetJSON(ctx context.Context, client *retryablehttp.Client, url string, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return errors.Join(ErrUnexpectedStatus, fmt.Errorf("GET %s: %d %s", url, resp.StatusCode, body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
