package issnow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/02loveslollipop/iss-ears/internal/models"
)

// DefaultURL is the Open Notify endpoint for the station's current position.
const DefaultURL = "http://api.open-notify.org/iss-now.json"

// DefaultTimeout bounds a single position request.
const DefaultTimeout = 10 * time.Second

// Client fetches the current ISS position.
type Client struct {
	http   *http.Client
	url    string
	logger *logrus.Logger
}

// New builds a Client. A nil httpClient gets one bounded by DefaultTimeout.
func New(httpClient *http.Client, url string, logger *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if url == "" {
		url = DefaultURL
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{http: httpClient, url: url, logger: logger}
}

// FetchPosition retrieves and parses the current position. Every failure is
// returned as a *FetchError.
func (c *Client) FetchPosition(ctx context.Context) (models.Position, error) {
	pos, err := c.fetch(ctx)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"url":   c.url,
			"kind":  kindOf(err),
			"error": err.Error(),
		}).Error("Failed to fetch ISS position")
		return models.Position{}, err
	}

	c.logger.WithFields(logrus.Fields{
		"latitude":  pos.Latitude,
		"longitude": pos.Longitude,
	}).Info("ISS current location")
	return pos, nil
}

func (c *Client) fetch(ctx context.Context) (models.Position, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return models.Position{}, &FetchError{Kind: KindNetwork, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return models.Position{}, &FetchError{Kind: transportKind(err), Err: fmt.Errorf("request position feed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Position{}, &FetchError{Kind: KindStatus, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var payload models.NowResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		// the client timeout can fire while the body is still streaming
		if kind := transportKind(err); kind == KindTimeout {
			return models.Position{}, &FetchError{Kind: kind, Err: fmt.Errorf("read payload: %w", err)}
		}
		return models.Position{}, &FetchError{Kind: KindDecode, Err: fmt.Errorf("decode payload: %w", err)}
	}
	if payload.Position == nil {
		return models.Position{}, &FetchError{Kind: KindDecode, Err: errors.New("payload has no iss_position")}
	}

	pos, err := models.ParsePosition(payload.Position.Latitude, payload.Position.Longitude)
	if err != nil {
		return models.Position{}, &FetchError{Kind: KindDecode, Err: err}
	}
	return pos, nil
}

func transportKind(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindNetwork
}

func kindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindNetwork
}
