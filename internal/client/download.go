package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/kamusis/skills-sync/internal/syncerr"
	"github.com/pkg/errors"
)

const downloadPath = "/sync/download/"

// Download fetches the archive stored under code. An unknown code yields a
// NotFound error.
func (c *Client) Download(ctx context.Context, code string, onProgress ProgressFunc) ([]byte, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, syncerr.InvalidInput("code", errors.New("business code is empty"))
	}
	u := c.baseURL + downloadPath + url.PathEscape(code)

	req, log, err := c.newRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, syncerr.Network("download", u, 0, "", err)
	}
	req.Header.Set("Accept", "application/zip, application/octet-stream")

	log.Debug("downloading archive")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, syncerr.Network("download", u, 0, "", err)
	}
	defer resp.Body.Close()
	log = log.WithField("status", resp.StatusCode)

	if resp.StatusCode == http.StatusNotFound {
		log.Debug("unknown business code")
		return nil, syncerr.NotFound(code)
	}
	if !ok(resp.StatusCode) {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxMessage))
		return nil, syncerr.Network("download", u, resp.StatusCode, serverMessage(msg), nil)
	}

	var buf bytes.Buffer
	if resp.ContentLength > 0 {
		buf.Grow(int(min(resp.ContentLength, maxPrealloc)))
	}
	if _, err := io.Copy(&buf, newProgressReader(resp.Body, resp.ContentLength, onProgress)); err != nil {
		return nil, syncerr.Network("download", u, resp.StatusCode, "", errors.Wrap(err, "cannot read archive"))
	}
	log.WithField("size", humanize.IBytes(uint64(buf.Len()))).Debug("download complete")
	return buf.Bytes(), nil
}
