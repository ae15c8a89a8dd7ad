package client

import (
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

var (
	codePaths    = []string{"body.code", "data.code", "code"}
	messagePaths = []string{"message", "error.message", "error", "msg", "body.message"}
)

// businessCode extracts the code from an upload response: a JSON object
// carrying it at one of codePaths, a bare JSON string or number, or plain
// text.
func businessCode(body []byte) string {
	if gjson.ValidBytes(body) {
		res := gjson.ParseBytes(body)
		switch {
		case res.IsObject():
			return firstString(body, codePaths)
		case res.Type == gjson.String || res.Type == gjson.Number:
			return strings.TrimSpace(res.String())
		}
	}
	return strings.TrimSpace(string(body))
}

// serverMessage extracts a human-readable error from a response body.
func serverMessage(body []byte) string {
	if gjson.ValidBytes(body) && gjson.ParseBytes(body).IsObject() {
		if msg := firstString(body, messagePaths); msg != "" {
			return clip(msg)
		}
	}
	return clip(strings.TrimSpace(string(body)))
}

func firstString(body []byte, paths []string) string {
	for _, p := range paths {
		v := gjson.GetBytes(body, p)
		if !v.Exists() || v.IsObject() || v.IsArray() {
			continue
		}
		if s := strings.TrimSpace(v.String()); s != "" {
			return s
		}
	}
	return ""
}

func clip(s string) string {
	if len(s) <= maxMessage {
		return s
	}
	s = s[:maxMessage]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
