package client

import (
	"context"
	"net/http"

	"github.com/kamusis/skills-sync/internal/syncerr"
)

// Ping sends HEAD to the base URL. Any HTTP response counts as reachable;
// its status is returned for display.
func (c *Client) Ping(ctx context.Context) (int, error) {
	u := c.baseURL + "/"
	req, log, err := c.newRequest(ctx, http.MethodHead, u, nil)
	if err != nil {
		return 0, syncerr.Network("ping", u, 0, "", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, syncerr.Network("ping", u, 0, "", err)
	}
	_ = resp.Body.Close()
	log.WithField("status", resp.StatusCode).Debug("server answered")
	return resp.StatusCode, nil
}
