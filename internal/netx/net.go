// Package netx contains the HTTP call used to hand a finished lead form to
// the host's own form action.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/photoform/internal/common"
)

// maxErrorBody bounds how much of a rejecting upstream's body ends up in the error.
const maxErrorBody = 512

// PostForm sends values as application/x-www-form-urlencoded to target.
// Any non-2xx answer is reported as common.ErrUpstreamRejected.
func PostForm(ctx context.Context, client *http.Client, target string, values url.Values) error {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(values.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %s; body: %s", common.ErrUpstreamRejected, resp.Status, string(b))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
