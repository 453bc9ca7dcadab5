package bitaps

import (
	"context"
	"io/ioutil"
	"net/http"
	"strings"
	"time"
)

const defaultRequestTimeout = 15 * time.Second

type httpResponse struct {
	status int
	body   string
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func newHTTPRequest(
	ctx context.Context, client *http.Client,
	method, url, bodyString string, header map[string]string,
) (int, string, error) {
	var body *strings.Reader
	if len(bodyString) > 0 {
		body = strings.NewReader(bodyString)
	} else {
		body = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, "", err
	}
	if len(bodyString) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range header {
		req.Header.Set(key, value)
	}

	rs, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer rs.Body.Close()

	bodyBytes, err := ioutil.ReadAll(rs.Body)
	if err != nil {
		return 0, "", err
	}

	return rs.StatusCode, string(bodyBytes), nil
}
