package infra

import (
	"time"

	"github.com/imroc/req/v3"
)

const (
	readRetryCount    = 2
	readRetryInterval = time.Second
)

// NewHttpClient creates the client used by queuectl to talk to a
// running server at baseURL. It never retries on its own, see
// RetryRead.
func NewHttpClient(baseURL string, debug bool) *req.Client {
	client := req.C(). // Use C() to create a client and set with chainable client settings.
		SetBaseURL(baseURL).
		SetCommonHeader("Accept", "application/json").
		// Timeout of all requests.
		SetTimeout(10 * time.Second)

	if debug {
		client.EnableDumpEachRequest()
	}
	return client
}

// RetryRead retries request on transport failures. Only for reads: a
// mutation whose response got lost may already have been applied.
func RetryRead(request *req.Request) *req.Request {
	return request.
		SetRetryCount(readRetryCount).
		SetRetryFixedInterval(readRetryInterval).
		SetRetryCondition(func(resp *req.Response, err error) bool {
			return err != nil
		})
}
