package webhook

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Rodrigocheo/Logistica-Inversa/internal/domain/models"
)

// Client POSTs every saved scan to an external webhook, typically a BI
// collector or a chat integration.
type Client struct {
	httpClient *resty.Client
	url        string
}

// NewClient builds a webhook notifier for the given URL.
func NewClient(url string) *Client {
	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &Client{
		httpClient: restyClient,
		url:        url,
	}
}

// Publish sends the row as a JSON body. Any non-2xx response is an error.
func (c *Client) Publish(ctx context.Context, row models.LedgerRow) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(row).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("post scan webhook: %w", err)
	}

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return fmt.Errorf("scan webhook returned status %d", resp.StatusCode())
	}

	return nil
}
