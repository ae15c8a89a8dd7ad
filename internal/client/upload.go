package client

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kamusis/skills-sync/internal/syncerr"
	"github.com/pkg/errors"
)

const (
	uploadPath      = "/sync/upload"
	uploadField     = "file"
	uploadFilename  = "skills.zip"
	archiveMimeType = "application/zip"
)

// Upload sends archive to the server and returns the business code it
// assigns. onProgress, if non-nil, sees the request body being written.
func (c *Client) Upload(ctx context.Context, archive []byte, onProgress ProgressFunc) (string, error) {
	url := c.baseURL + uploadPath

	body, contentType, err := multipartBody(archive)
	if err != nil {
		return "", errors.Wrap(err, "cannot build upload body")
	}
	total := int64(body.Len())
	pr := newProgressReader(body, total, onProgress)

	req, log, err := c.newRequest(ctx, http.MethodPost, url, pr)
	if err != nil {
		return "", syncerr.Network("upload", url, 0, "", err)
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json, text/plain")

	log.WithField("size", humanize.IBytes(uint64(len(archive)))).Debug("uploading archive")
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", syncerr.Network("upload", url, 0, "", err)
	}
	defer resp.Body.Close()
	log = log.WithField("status", resp.StatusCode).WithField("elapsed", time.Since(start).Round(time.Millisecond))

	if !ok(resp.StatusCode) {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxMessage))
		log.Debug("upload rejected")
		return "", syncerr.Network("upload", url, resp.StatusCode, serverMessage(msg), nil)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return "", syncerr.Network("upload", url, resp.StatusCode, "", errors.Wrap(err, "cannot read response"))
	}
	code := businessCode(raw)
	if code == "" {
		return "", syncerr.Network("upload", url, resp.StatusCode, "server returned no business code", nil)
	}
	log.WithField("code", code).Debug("upload accepted")
	return code, nil
}

func multipartBody(archive []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+uploadField+`"; filename="`+uploadFilename+`"`)
	h.Set("Content-Type", archiveMimeType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(archive); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
