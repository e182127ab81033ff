// Package session keeps each user's agenda settings between requests.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/beekhof/meetme/internal/agenda"
	"github.com/beekhof/meetme/internal/datetime"
	"github.com/beekhof/meetme/internal/logger"
)

// ErrUnknownSession is returned when updating a session that does not exist
// or has expired.
var ErrUnknownSession = errors.New("unknown session")

const (
	defaultSize = 1024
	defaultTTL  = 24 * time.Hour
)

// State is one session's agenda settings. States are values; the store
// hands out copies.
type State struct {
	ID        string
	BeginDate time.Time
	EndDate   time.Time
	BeginTime datetime.TimeOfDay
	EndTime   datetime.TimeOfDay
	DateRange string
}

// Request is the pipeline input described by s.
func (s State) Request() agenda.Request {
	return agenda.Request{
		Range:  datetime.DateRange{Begin: s.BeginDate, End: s.EndDate},
		Window: datetime.TimeWindow{Begin: s.BeginTime, End: s.EndTime},
	}
}

// Options configures a Store. Zero values select the defaults.
type Options struct {
	Size     int
	TTL      time.Duration
	Location *time.Location
	Window   datetime.TimeWindow
	Now      func() time.Time
}

// Store holds session states in an LRU whose entries expire after a TTL.
// It is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	states *expirable.LRU[string, State]
	loc    *time.Location
	window datetime.TimeWindow
	now    func() time.Time
	log    *logger.Logger
}

// NewStore returns an empty Store.
func NewStore(opt Options) *Store {
	if opt.Size <= 0 {
		opt.Size = defaultSize
	}
	if opt.TTL <= 0 {
		opt.TTL = defaultTTL
	}
	if opt.Location == nil {
		opt.Location = time.Local
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if opt.Window == (datetime.TimeWindow{}) {
		opt.Window = datetime.TimeWindow{
			Begin: datetime.NewTimeOfDay(8, 0, opt.Location),
			End:   datetime.NewTimeOfDay(17, 0, opt.Location),
		}
	}

	return &Store{
		states: expirable.NewLRU[string, State](opt.Size, nil, opt.TTL),
		loc:    opt.Location,
		window: opt.Window,
		now:    opt.Now,
		log:    logger.Named("session"),
	}
}

// Get returns the state stored under id. When id is empty, unknown or
// expired, a new state with default settings and a fresh id is created.
func (s *Store) Get(id string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if st, ok := s.states.Get(id); ok {
			return st
		}
	}

	rng, text := datetime.DefaultRange(s.now(), s.loc)
	st := State{
		ID:        uuid.NewString(),
		BeginDate: rng.Begin,
		EndDate:   rng.End,
		BeginTime: s.window.Begin,
		EndTime:   s.window.End,
		DateRange: text,
	}
	s.states.Add(st.ID, st)
	s.log.Debug().Str("session", st.ID).Str("range", text).Msg("created session")
	return st
}

// SetRange parses the submitted range and times and stores them in the
// session as one update. An empty range or time keeps its current value. On a
// parse error the session is left exactly as it was.
func (s *Store) SetRange(id, rangeText, timeStart, timeEnd string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states.Get(id)
	if !ok {
		return State{}, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}

	rng := datetime.DateRange{Begin: st.BeginDate, End: st.EndDate}
	text := st.DateRange
	if strings.TrimSpace(rangeText) != "" {
		parsed, err := datetime.ParseRange(rangeText, s.loc)
		if err != nil {
			return State{}, err
		}
		rng, text = parsed, strings.TrimSpace(rangeText)
	}

	var err error
	begin, end := st.BeginTime, st.EndTime
	if strings.TrimSpace(timeStart) != "" {
		if begin, err = datetime.InterpretTime(timeStart, s.loc); err != nil {
			return State{}, err
		}
	}
	if strings.TrimSpace(timeEnd) != "" {
		if end, err = datetime.InterpretTime(timeEnd, s.loc); err != nil {
			return State{}, err
		}
	}

	st.BeginDate, st.EndDate = rng.Begin, rng.End
	st.BeginTime, st.EndTime = begin, end
	st.DateRange = text
	s.states.Add(id, st)

	s.log.Debug().
		Str("session", id).
		Time("begin", rng.Begin).
		Time("end", rng.End).
		Str("window", datetime.TimeWindow{Begin: begin, End: end}.String()).
		Msg("updated session range")
	return st, nil
}

// Delete drops the session.
func (s *Store) Delete(id string) {
	s.states.Remove(id)
}
