package estimator

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tdex-network/barter-daemon/internal/core/ports"
	"github.com/tdex-network/barter-daemon/pkg/util"
)

const (
	Pollinations = "pollinations"
	// PollinationsURL is the default base url of the Pollinations text API.
	PollinationsURL = "https://text.pollinations.ai"
)

type pollinations struct {
	baseURL string
	client  *http.Client
}

// NewPollinations returns an estimate provider using the public
// Pollinations text generation endpoint.
func NewPollinations(baseURL string, timeout time.Duration) ports.EstimateProvider {
	if baseURL == "" {
		baseURL = PollinationsURL
	}
	return &pollinations{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  util.NewHTTPClient(timeout),
	}
}

func (p *pollinations) Name() string {
	return Pollinations
}

func (p *pollinations) Estimate(ctx context.Context, item string) (string, error) {
	endpoint := p.baseURL + "/" + url.PathEscape(Prompt(item))

	status, body, err := util.NewHTTPRequest(
		ctx, p.client, http.MethodGet, endpoint, nil, nil,
	)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", &util.StatusError{StatusCode: status, Body: string(body)}
	}
	return string(body), nil
}
