package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/calendar/v3"
)

type rewriteTransport struct {
	Transport http.RoundTripper
	Host      string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	req.URL.Host = t.Host
	return t.Transport.RoundTrip(req)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	httpClient := &http.Client{Transport: &rewriteTransport{
		Transport: http.DefaultTransport,
		Host:      strings.TrimPrefix(ts.URL, "http://"),
	}}
	c, err := NewClient(context.Background(), httpClient, opts...)
	if err != nil {
		t.Fatalf("NewClient() returned an error: %v", err)
	}
	return c
}

func TestClient_Events_QueryParameters(t *testing.T) {
	timeMin := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	timeMax := time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/calendars/team@example.com/events") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("singleEvents") != "true" {
			t.Errorf("singleEvents = %q, want true", q.Get("singleEvents"))
		}
		if q.Get("orderBy") != "startTime" {
			t.Errorf("orderBy = %q, want startTime", q.Get("orderBy"))
		}
		if q.Get("timeMin") != timeMin.Format(time.RFC3339) {
			t.Errorf("timeMin = %q", q.Get("timeMin"))
		}
		if q.Get("timeMax") != timeMax.Format(time.RFC3339) {
			t.Errorf("timeMax = %q", q.Get("timeMax"))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(&calendar.Events{Items: []*calendar.Event{{Id: "e1", Summary: "Standup"}}})
	})

	events, err := c.Events(context.Background(), "team@example.com", timeMin, timeMax)
	if err != nil {
		t.Fatalf("Events() returned an error: %v", err)
	}
	if len(events) != 1 || events[0].Summary != "Standup" {
		t.Errorf("Events() = %+v", events)
	}
}

func TestClient_Events_FollowsPages(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("pageToken") == "" {
			json.NewEncoder(w).Encode(&calendar.Events{
				Items:         []*calendar.Event{{Id: "e1"}},
				NextPageToken: "p2",
			})
			return
		}
		json.NewEncoder(w).Encode(&calendar.Events{Items: []*calendar.Event{{Id: "e2"}}})
	})

	events, err := c.Events(context.Background(), "primary", time.Now(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Events() returned an error: %v", err)
	}
	if calls != 2 || len(events) != 2 || events[1].Id != "e2" {
		t.Errorf("calls = %d, events = %+v", calls, events)
	}
}

func TestClient_CalendarList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/users/me/calendarList") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(&calendar.CalendarList{Items: []*calendar.CalendarListEntry{
			{Id: "me@example.com", Summary: "Me", Primary: true},
			{Id: "team", Summary: "Team"},
		}})
	})

	entries, err := c.CalendarList(context.Background())
	if err != nil {
		t.Fatalf("CalendarList() returned an error: %v", err)
	}
	if len(entries) != 2 || !entries[0].Primary {
		t.Errorf("CalendarList() = %+v", entries)
	}
}

func TestClient_PropagatesAPIErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":401,"message":"invalid credentials"}}`, http.StatusUnauthorized)
	})

	if _, err := c.CalendarList(context.Background()); err == nil {
		t.Error("expected an error from CalendarList")
	}
	if _, err := c.Events(context.Background(), "primary", time.Now(), time.Now()); err == nil {
		t.Error("expected an error from Events")
	}
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[]}`))
	}, WithRateLimit(0.001, 1))

	ctx := context.Background()
	if _, err := c.CalendarList(ctx); err != nil {
		t.Fatalf("first call should use the burst: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if _, err := c.CalendarList(ctx); err == nil {
		t.Error("expected the limiter to give up when the context expires")
	}
}
