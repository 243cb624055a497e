//go:generate go run go.uber.org/mock/mockgen -source=client.go -destination=mock/client.go
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/mjtimeline/core"
)

const (
	defaultTimeout = 10 * time.Second
	queryTimeout   = 5 * time.Second
)

var tracer = otel.Tracer("client")

// Client talks to the ledger node that executes timeline documents
type Client interface {
	Commit(ctx context.Context, commit core.Commit) (core.Receipt, error)
	GetReceipt(ctx context.Context, digest string) (core.Receipt, error)
	GetContainer(ctx context.Context, id string) (core.ContainerState, error)
	ListContainers(ctx context.Context, owner string) ([]core.TimelineContainer, error)
}

type client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a ledger node client for the configured endpoint
func NewClient(config core.Config) Client {
	return &client{
		endpoint: strings.TrimRight(config.Endpoint, "/"),
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *client) Commit(ctx context.Context, commit core.Commit) (core.Receipt, error) {
	ctx, span := tracer.Start(ctx, "Client.Commit")
	defer span.End()

	body, err := json.Marshal(commit)
	if err != nil {
		span.RecordError(err)
		return core.Receipt{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/v1/commit", bytes.NewBuffer(body))
	if err != nil {
		span.RecordError(err)
		return core.Receipt{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	receipt, err := do[core.Receipt](c.http, req)
	if err != nil {
		span.RecordError(err)
		return core.Receipt{}, err
	}

	span.SetAttributes(attribute.String("digest", receipt.Digest))
	return receipt, nil
}

func (c *client) GetReceipt(ctx context.Context, digest string) (core.Receipt, error) {
	ctx, span := tracer.Start(ctx, "Client.GetReceipt")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/api/v1/receipt/"+url.PathEscape(digest), nil)
	if err != nil {
		span.RecordError(err)
		return core.Receipt{}, err
	}

	receipt, err := do[core.Receipt](c.http, req)
	if err != nil {
		span.RecordError(err)
		return core.Receipt{}, err
	}

	return receipt, nil
}

func (c *client) GetContainer(ctx context.Context, id string) (core.ContainerState, error) {
	ctx, span := tracer.Start(ctx, "Client.GetContainer")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/api/v1/timeline/"+url.PathEscape(id), nil)
	if err != nil {
		span.RecordError(err)
		return core.ContainerState{}, err
	}

	state, err := do[core.ContainerState](c.http, req)
	if err != nil {
		span.RecordError(err)
		return core.ContainerState{}, err
	}

	return state, nil
}

func (c *client) ListContainers(ctx context.Context, owner string) ([]core.TimelineContainer, error) {
	ctx, span := tracer.Start(ctx, "Client.ListContainers")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/api/v1/timelines?owner="+url.QueryEscape(owner), nil)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	containers, err := do[[]core.TimelineContainer](c.http, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return containers, nil
}

func do[T any](httpClient *http.Client, req *http.Request) (T, error) {
	var zero T

	resp, err := httpClient.Do(req)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, err
	}

	var envelope core.ResponseBase[T]
	err = json.Unmarshal(body, &envelope)
	if err != nil {
		return zero, errors.Wrap(err, fmt.Sprintf("unexpected response (status %d)", resp.StatusCode))
	}

	if envelope.Status != "ok" {
		if envelope.Error != "" {
			return zero, errors.New(envelope.Error)
		}
		return zero, fmt.Errorf("remote returned status %q (http %d)", envelope.Status, resp.StatusCode)
	}

	return envelope.Content, nil
}
