package client

import (
	"net/url"
	"strings"
)

// redact hides API keys and bot tokens before a URL is logged.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}

	q := u.Query()
	if q.Has("appid") {
		q.Set("appid", "REDACTED")
		u.RawQuery = q.Encode()
	}

	if i := strings.Index(u.Path, "/bot"); i >= 0 {
		rest := u.Path[i+len("/bot"):]
		if j := strings.Index(rest, "/"); j >= 0 {
			u.Path = u.Path[:i] + "/botREDACTED" + rest[j:]
		}
	}
	return u.String()
}
