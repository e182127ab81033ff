package calendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/beekhof/meetme/internal/logger"
)

// Client is a wrapper around the Google Calendar API service.
type Client struct {
	service *calendar.Service
	limiter *rate.Limiter
	log     *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRateLimit caps outgoing API calls at rps requests per second.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a new Google Calendar API client using the provided HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client, opts ...Option) (*Client, error) {
	service, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	c := &Client{service: service, log: logger.Named("google")}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// CalendarList returns all entries of the user's calendar list, following
// pagination to the end.
func (c *Client) CalendarList(ctx context.Context) ([]*calendar.CalendarListEntry, error) {
	var (
		entries []*calendar.CalendarListEntry
		token   string
	)
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		call := c.service.CalendarList.List().Context(ctx)
		if token != "" {
			call = call.PageToken(token)
		}
		page, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("Google: failed to list calendars: %w", err)
		}
		entries = append(entries, page.Items...)
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}

	c.log.Debug().Int("count", len(entries)).Msg("listed calendars")
	return entries, nil
}

// Events retrieves events from a calendar within the specified time window.
// Recurring events are expanded into single instances and ordered by start.
func (c *Client) Events(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*calendar.Event, error) {
	var (
		events []*calendar.Event
		token  string
	)
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		call := c.service.Events.List(calendarID).
			Context(ctx).
			TimeMin(timeMin.Format(time.RFC3339)).
			TimeMax(timeMax.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime")
		if token != "" {
			call = call.PageToken(token)
		}
		page, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list events of %s: %w", calendarID, err)
		}
		events = append(events, page.Items...)
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}

	c.log.Debug().Str("calendar_id", calendarID).Int("count", len(events)).Msg("listed events")
	return events, nil
}
