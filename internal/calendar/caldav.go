package calendar

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"
	"golang.org/x/time/rate"
	"google.golang.org/api/calendar/v3"

	"github.com/beekhof/meetme/internal/logger"
)

// maxOccurrences bounds the expansion of a single recurring series.
const maxOccurrences = 5000

const (
	propfindBody = `<?xml version="1.0" encoding="utf-8" ?>
<d:propfind xmlns:d="DAV:" xmlns:c="urn:ietf:params:xml:ns:caldav">
  <d:prop>
    <d:displayname/>
    <d:resourcetype/>
    <c:calendar-description/>
  </d:prop>
</d:propfind>`

	reportBody = `<?xml version="1.0" encoding="utf-8" ?>
<C:calendar-query xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:prop>
    <D:getetag/>
    <C:calendar-data/>
  </D:prop>
  <C:filter>
    <C:comp-filter name="VCALENDAR">
      <C:comp-filter name="VEVENT">
        <C:time-range start="%s" end="%s"/>
      </C:comp-filter>
    </C:comp-filter>
  </C:filter>
</C:calendar-query>`
)

// CalDAVClient reads calendars from a CalDAV server such as iCloud.
// Calendar IDs are the collection paths on the server.
type CalDAVClient struct {
	httpClient *http.Client
	username   string
	password   string
	serverURL  string
	basePath   string
	loc        *time.Location
	limiter    *rate.Limiter
	log        *logger.Logger
}

// CalDAVOption configures a CalDAVClient.
type CalDAVOption func(*CalDAVClient)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) CalDAVOption {
	return func(c *CalDAVClient) { c.httpClient = hc }
}

// WithBasePath sets the collection that holds the user's calendars.
// It defaults to /{username}/calendars/.
func WithBasePath(p string) CalDAVOption {
	return func(c *CalDAVClient) {
		if !strings.HasSuffix(p, "/") {
			p += "/"
		}
		c.basePath = p
	}
}

// WithLocation sets the zone used for floating and all-day times.
func WithLocation(loc *time.Location) CalDAVOption {
	return func(c *CalDAVClient) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithCalDAVRateLimit caps outgoing requests at rps per second.
func WithCalDAVRateLimit(rps float64, burst int) CalDAVOption {
	return func(c *CalDAVClient) {
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

// NewCalDAVClient creates a client for the CalDAV server at serverURL.
// For iCloud the password should be an app-specific password.
func NewCalDAVClient(serverURL, username, password string, opts ...CalDAVOption) (*CalDAVClient, error) {
	if serverURL == "" {
		return nil, fmt.Errorf("caldav: server URL is required")
	}
	c := &CalDAVClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		username:   username,
		password:   password,
		serverURL:  strings.TrimSuffix(serverURL, "/"),
		basePath:   fmt.Sprintf("/%s/calendars/", username),
		loc:        time.Local,
		log:        logger.Named("caldav"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// makeRequest makes an authenticated request to the CalDAV server.
func (c *CalDAVClient) makeRequest(ctx context.Context, method, p string, body io.Reader) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+p, body)
	if err != nil {
		return nil, err
	}

	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/xml; charset=utf-8")
	}
	req.Header.Set("Depth", "1")

	return c.httpClient.Do(req)
}

func (c *CalDAVClient) query(ctx context.Context, method, p, body string) (*multistatus, error) {
	resp, err := c.makeRequest(ctx, method, p, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMultiStatus && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var ms multistatus
	if err := xml.NewDecoder(resp.Body).Decode(&ms); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}
	return &ms, nil
}

// CalendarList lists the calendar collections under the base path. The
// base collection itself and non-calendar resources are skipped.
func (c *CalDAVClient) CalendarList(ctx context.Context) ([]*calendar.CalendarListEntry, error) {
	ms, err := c.query(ctx, "PROPFIND", c.basePath, propfindBody)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	var entries []*calendar.CalendarListEntry
	for _, r := range ms.Responses {
		prop := r.prop()
		if prop.ResourceType.Calendar == nil {
			continue
		}
		summary := strings.TrimSpace(prop.DisplayName)
		if summary == "" {
			summary = path.Base(strings.TrimSuffix(r.Href, "/"))
		}
		entries = append(entries, &calendar.CalendarListEntry{
			Id:          r.Href,
			Summary:     summary,
			Description: strings.TrimSpace(prop.Description),
			Kind:        "caldav#calendar",
		})
	}

	c.log.Debug().Int("count", len(entries)).Msg("listed calendars")
	return entries, nil
}

// Events runs a calendar-query REPORT against calendarID and returns the
// event instances overlapping [timeMin, timeMax) ordered by start.
// Recurring series are expanded locally.
func (c *CalDAVClient) Events(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*calendar.Event, error) {
	body := fmt.Sprintf(reportBody,
		timeMin.UTC().Format("20060102T150405Z"),
		timeMax.UTC().Format("20060102T150405Z"))

	ms, err := c.query(ctx, "REPORT", calendarID, body)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar %s: %w", calendarID, err)
	}

	var events []*calendar.Event
	for _, r := range ms.Responses {
		data := r.prop().CalendarData
		if strings.TrimSpace(data) == "" {
			continue
		}
		cal, err := ical.NewDecoder(strings.NewReader(data)).Decode()
		if err != nil {
			c.log.Warn().Err(err).Str("href", r.Href).Msg("failed to parse iCalendar data")
			continue
		}
		events = append(events, c.expand(cal, timeMin, timeMax)...)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return eventStart(events[i], c.loc).Before(eventStart(events[j], c.loc))
	})
	return events, nil
}

// expand converts every VEVENT of cal into instances within the window.
// Overrides carrying a RECURRENCE-ID replace the matching occurrence of
// their master.
func (c *CalDAVClient) expand(cal *ical.Calendar, timeMin, timeMax time.Time) []*calendar.Event {
	var masters, overrides []*ical.Component
	replaced := make(map[string]bool)

	for _, comp := range cal.Children {
		if comp.Name != ical.CompEvent {
			continue
		}
		rid := comp.Props.Get("RECURRENCE-ID")
		if rid == nil {
			masters = append(masters, comp)
			continue
		}
		overrides = append(overrides, comp)
		if ts, err := rid.DateTime(c.loc); err == nil {
			replaced[occurrenceKey(uidOf(comp), ts)] = true
		}
	}

	var out []*calendar.Event
	for _, comp := range masters {
		instances, err := c.instances(comp, timeMin, timeMax, replaced)
		if err != nil {
			c.log.Warn().Err(err).Str("uid", uidOf(comp)).Msg("failed to convert event")
			continue
		}
		out = append(out, instances...)
	}
	for _, comp := range overrides {
		ev, err := c.instanceAt(comp, time.Time{}, false)
		if err != nil {
			c.log.Warn().Err(err).Str("uid", uidOf(comp)).Msg("failed to convert event override")
			continue
		}
		if ev != nil && overlaps(ev, timeMin, timeMax, c.loc) {
			out = append(out, ev)
		}
	}
	return out
}

func (c *CalDAVClient) instances(comp *ical.Component, timeMin, timeMax time.Time, replaced map[string]bool) ([]*calendar.Event, error) {
	ev := ical.Event{Component: comp}
	set, err := ev.RecurrenceSet(c.loc)
	if err != nil {
		return nil, fmt.Errorf("failed to read recurrence rule: %w", err)
	}
	if set == nil {
		single, err := c.instanceAt(comp, time.Time{}, false)
		if err != nil || single == nil || !overlaps(single, timeMin, timeMax, c.loc) {
			return nil, err
		}
		return []*calendar.Event{single}, nil
	}

	c.excludeDates(set, comp)

	start, err := ev.DateTimeStart(c.loc)
	if err != nil {
		return nil, fmt.Errorf("failed to read start: %w", err)
	}
	end, err := ev.DateTimeEnd(c.loc)
	if err != nil || end.Before(start) {
		end = start
	}

	uid := uidOf(comp)
	var out []*calendar.Event
	for _, occ := range set.Between(timeMin.Add(-end.Sub(start)), timeMax, true) {
		if len(out) >= maxOccurrences {
			c.log.Warn().Str("uid", uid).Int("limit", maxOccurrences).Msg("recurrence expansion truncated")
			break
		}
		if replaced[occurrenceKey(uid, occ)] {
			continue
		}
		inst, err := c.instanceAt(comp, occ, true)
		if err != nil {
			return nil, err
		}
		if inst != nil && overlaps(inst, timeMin, timeMax, c.loc) {
			out = append(out, inst)
		}
	}
	return out, nil
}

// excludeDates adds every EXDATE of comp to set. A property may carry
// several comma-separated dates.
func (c *CalDAVClient) excludeDates(set *rrule.Set, comp *ical.Component) {
	for _, p := range comp.Props.Values(ical.PropExceptionDates) {
		for _, v := range strings.Split(p.Value, ",") {
			ex := ical.Prop{Name: p.Name, Params: p.Params, Value: v}
			ts, err := ex.DateTime(c.loc)
			if err != nil {
				c.log.Debug().Err(err).Str("value", v).Msg("skipping unreadable EXDATE")
				continue
			}
			set.ExDate(ts)
		}
	}
}

// instanceAt converts comp into a Google-shaped event. When shift is true
// the event is moved to start at occ, keeping its length.
// A nil event with a nil error means the instance was cancelled.
func (c *CalDAVClient) instanceAt(comp *ical.Component, occ time.Time, shift bool) (*calendar.Event, error) {
	if status := comp.Props.Get(ical.PropStatus); status != nil && strings.EqualFold(status.Value, "CANCELLED") {
		return nil, nil
	}

	ev := ical.Event{Component: comp}
	dtstart := comp.Props.Get(ical.PropDateTimeStart)
	if dtstart == nil {
		return nil, fmt.Errorf("event has no DTSTART")
	}
	start, err := ev.DateTimeStart(c.loc)
	if err != nil {
		return nil, fmt.Errorf("failed to read start: %w", err)
	}
	end, err := ev.DateTimeEnd(c.loc)
	if err != nil || end.Before(start) {
		end = start
	}
	allDay := dtstart.ValueType() == ical.ValueDate

	event := &calendar.Event{Id: uidOf(comp)}
	if shift {
		event.RecurringEventId = event.Id
		event.Id = fmt.Sprintf("%s_%s", event.Id, occ.UTC().Format("20060102T150405Z"))
		if allDay {
			days := int(end.Sub(start).Round(24*time.Hour) / (24 * time.Hour))
			end = occ.AddDate(0, 0, days)
		} else {
			end = occ.Add(end.Sub(start))
		}
		start = occ
	}

	if allDay {
		if !end.After(start) {
			end = start.AddDate(0, 0, 1)
		}
		event.Start = &calendar.EventDateTime{Date: start.Format("2006-01-02")}
		event.End = &calendar.EventDateTime{Date: end.Format("2006-01-02")}
	} else {
		event.Start = &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)}
		event.End = &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)}
	}

	if summary := comp.Props.Get(ical.PropSummary); summary != nil {
		if text, err := summary.Text(); err == nil {
			event.Summary = text
		}
	}
	if desc := comp.Props.Get(ical.PropDescription); desc != nil {
		if text, err := desc.Text(); err == nil {
			event.Description = text
		}
	}
	if loc := comp.Props.Get(ical.PropLocation); loc != nil {
		if text, err := loc.Text(); err == nil {
			event.Location = text
		}
	}
	if transp := comp.Props.Get("TRANSP"); transp != nil && strings.EqualFold(transp.Value, "TRANSPARENT") {
		event.Transparency = "transparent"
	}

	return event, nil
}

type multistatus struct {
	XMLName   xml.Name   `xml:"multistatus"`
	Responses []response `xml:"response"`
}

type response struct {
	Href      string     `xml:"href"`
	Propstats []propstat `xml:"propstat"`
}

type propstat struct {
	Prop   davProp `xml:"prop"`
	Status string  `xml:"status"`
}

type davProp struct {
	DisplayName  string `xml:"displayname"`
	Description  string `xml:"calendar-description"`
	CalendarData string `xml:"calendar-data"`
	ResourceType struct {
		Calendar *struct{} `xml:"calendar"`
	} `xml:"resourcetype"`
}

// prop merges the successful propstats of a response.
func (r response) prop() davProp {
	var out davProp
	for _, ps := range r.Propstats {
		if ps.Status != "" && !strings.Contains(ps.Status, " 200") {
			continue
		}
		p := ps.Prop
		if p.DisplayName != "" {
			out.DisplayName = p.DisplayName
		}
		if p.Description != "" {
			out.Description = p.Description
		}
		if p.CalendarData != "" {
			out.CalendarData = p.CalendarData
		}
		if p.ResourceType.Calendar != nil {
			out.ResourceType.Calendar = p.ResourceType.Calendar
		}
	}
	return out
}

func uidOf(comp *ical.Component) string {
	if uid := comp.Props.Get(ical.PropUID); uid != nil {
		return uid.Value
	}
	return ""
}

func occurrenceKey(uid string, ts time.Time) string {
	return fmt.Sprintf("%s@%d", uid, ts.Unix())
}

func eventStart(e *calendar.Event, loc *time.Location) time.Time {
	t, _ := eventBounds(e, loc)
	return t
}

func eventBounds(e *calendar.Event, loc *time.Location) (time.Time, time.Time) {
	parse := func(dt *calendar.EventDateTime) time.Time {
		if dt == nil {
			return time.Time{}
		}
		if dt.DateTime != "" {
			t, _ := time.Parse(time.RFC3339, dt.DateTime)
			return t
		}
		t, _ := time.ParseInLocation("2006-01-02", dt.Date, loc)
		return t
	}
	return parse(e.Start), parse(e.End)
}

func overlaps(e *calendar.Event, timeMin, timeMax time.Time, loc *time.Location) bool {
	start, end := eventBounds(e, loc)
	if end.Equal(start) {
		return !start.Before(timeMin) && start.Before(timeMax)
	}
	return start.Before(timeMax) && end.After(timeMin)
}
