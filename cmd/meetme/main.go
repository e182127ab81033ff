package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/beekhof/meetme/internal/agenda"
	"github.com/beekhof/meetme/internal/auth"
	calclient "github.com/beekhof/meetme/internal/calendar"
	"github.com/beekhof/meetme/internal/catalog"
	"github.com/beekhof/meetme/internal/config"
	"github.com/beekhof/meetme/internal/datetime"
	"github.com/beekhof/meetme/internal/logger"
	"github.com/beekhof/meetme/internal/session"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func printHelp(w io.Writer) {
	fmt.Fprintf(w, `MeetMe

Shows the events of one or more calendars, day by day, for a date range and
a daily time window. Transparent ("free") events are left out and events that
run past midnight are split across the days they cover.

USAGE:
    %s [OPTIONS]

OPTIONS:
    -h, --help                    Show this help message and exit
    -v, --verbose                 Enable verbose output (show DEBUG logs)
    --config FILE                 Path to a JSON or YAML config file (optional)
    --list                        List the available calendars and exit
    --calendar ID                 Calendar to show; repeat for several
                                  (default: calendars from the config file, else
                                  the primary and selected calendars)
    --range "MM/DD/YYYY - MM/DD/YYYY"
                                  Dates to show (default: tomorrow through one week from today)
    --from TIME                   Start of the daily window, e.g. 8am or 08:00 (default: 8am)
    --to TIME                     End of the daily window, e.g. 5pm or 17:00 (default: 5pm)
                                  Events are kept when they start inside the window.
                                  All-day events start at midnight, so they only show
                                  when the window starts at 00:00 (e.g. --from 0:00)
    --provider NAME               google or caldav
    --google-credentials-path PATH Path to Google OAuth credentials JSON file
    --token-path PATH             Where the Google OAuth token is kept
    --timezone ZONE               IANA zone used for days and times (default: local)
    --reauth                      Discard the stored token and authorize again
    --manual-auth                 Paste the authorization code instead of using
                                  a local callback server

CONFIGURATION PRECEDENCE (highest to lowest):
    1. Command-line flags
    2. Environment variables (MEETME_PROVIDER, GOOGLE_CREDENTIALS_PATH, MEETME_TOKEN_PATH,
       CALDAV_URL, CALDAV_USERNAME, CALDAV_PASSWORD, MEETME_TIMEZONE, MEETME_DAY_START,
       MEETME_DAY_END, MEETME_CALENDARS, LOG_LEVEL, LOG_FORMAT)
    3. Config file (--config)
    4. Defaults

EXAMPLES:
    # List calendars
    %s --config ~/.config/meetme/config.yaml --list

    # Working hours of two calendars for the first week of May
    %s --calendar primary --calendar team@example.com \
       --range "05/01/2024 - 05/07/2024" --from 9am --to 5:30pm

`, os.Args[0], os.Args[0], os.Args[0])
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type options struct {
	configFile string
	flags      config.Flags
	list       bool
	rangeText  string
	from       string
	to         string
	reauth     bool
	manualAuth bool
	verbose    bool
}

func main() {
	var (
		opts      options
		calendars stringList
		help      bool
	)
	flag.BoolVar(&help, "help", false, "Show help message")
	flag.BoolVar(&help, "h", false, "Show help message (shorthand)")
	flag.BoolVar(&opts.verbose, "verbose", false, "Enable verbose output")
	flag.BoolVar(&opts.verbose, "v", false, "Enable verbose output (shorthand)")
	flag.StringVar(&opts.configFile, "config", "", "Path to JSON or YAML config file")
	flag.BoolVar(&opts.list, "list", false, "List the available calendars and exit")
	flag.Var(&calendars, "calendar", "Calendar to show (repeatable)")
	flag.StringVar(&opts.rangeText, "range", "", `Date range, "MM/DD/YYYY - MM/DD/YYYY"`)
	flag.StringVar(&opts.from, "from", "", "Start of the daily window")
	flag.StringVar(&opts.to, "to", "", "End of the daily window")
	flag.StringVar(&opts.flags.Provider, "provider", "", "google or caldav")
	flag.StringVar(&opts.flags.GoogleCredentialsPath, "google-credentials-path", "", "Path to Google OAuth credentials JSON file")
	flag.StringVar(&opts.flags.TokenPath, "token-path", "", "Path of the stored OAuth token")
	flag.StringVar(&opts.flags.Timezone, "timezone", "", "IANA timezone")
	flag.BoolVar(&opts.reauth, "reauth", false, "Discard the stored token and authorize again")
	flag.BoolVar(&opts.manualAuth, "manual-auth", false, "Paste the authorization code by hand")
	flag.Usage = func() { printHelp(os.Stderr) }
	flag.Parse()

	if help {
		printHelp(os.Stderr)
		os.Exit(exitOK)
	}
	opts.flags.Calendars = calendars
	if opts.verbose {
		opts.flags.LogLevel = "debug"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, opts, os.Stdout, os.Stderr))
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer) int {
	logger.Init(logger.FromEnv())

	// Load configuration (precedence: flags > env vars > config file > defaults)
	cfg, err := config.LoadConfig(opts.configFile, opts.flags)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return exitUsage
	}
	logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Writer: stderr})
	log := logger.Named("main")

	loc, err := cfg.Location()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	window, err := cfg.Window(loc)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	provider, err := newProvider(ctx, cfg, opts, stderr)
	if err != nil {
		log.Error().Err(err).Str("provider", cfg.Provider).Msg("failed to set up calendar provider")
		fmt.Fprintf(stderr, "Failed to connect to %s: %v\n", cfg.Provider, err)
		return exitFailure
	}
	svc := agenda.NewService(provider, loc)

	if opts.list {
		cals, err := svc.Calendars(ctx)
		if err != nil {
			return reportFetchError(stderr, err)
		}
		renderCalendars(stdout, cals)
		return exitOK
	}

	sessions := session.NewStore(session.Options{TTL: cfg.TTL(), Location: loc, Window: window})
	st := sessions.Get("")
	defer sessions.Delete(st.ID)
	if opts.rangeText != "" || opts.from != "" || opts.to != "" {
		if st, err = sessions.SetRange(st.ID, opts.rangeText, opts.from, opts.to); err != nil {
			if msg, ok := datetime.UserMessage(err); ok {
				fmt.Fprintln(stderr, msg)
				return exitUsage
			}
			fmt.Fprintln(stderr, err)
			return exitFailure
		}
	}

	ids := cfg.Calendars
	if len(ids) == 0 {
		cals, err := svc.Calendars(ctx)
		if err != nil {
			return reportFetchError(stderr, err)
		}
		ids = defaultSelection(cals)
	}
	if len(ids) == 0 {
		fmt.Fprintln(stderr, "No calendars to show; pass --calendar or run with --list")
		return exitUsage
	}

	result, err := svc.Choose(ctx, st.Request(), ids)
	if err != nil {
		return reportFetchError(stderr, err)
	}

	fmt.Fprintf(stdout, "%s, %s\n\n", st.DateRange, st.Request().Window)
	renderAgenda(stdout, result)
	return exitOK
}

func newProvider(ctx context.Context, cfg *config.Config, opts options, stderr io.Writer) (calclient.Service, error) {
	switch cfg.Provider {
	case config.ProviderCalDAV:
		loc, err := cfg.Location()
		if err != nil {
			return nil, err
		}
		caldavOpts := []calclient.CalDAVOption{
			calclient.WithLocation(loc),
			calclient.WithCalDAVRateLimit(cfg.RequestsPerSecond, 1),
		}
		if cfg.CalDAVBasePath != "" {
			caldavOpts = append(caldavOpts, calclient.WithBasePath(cfg.CalDAVBasePath))
		}
		return calclient.NewCalDAVClient(cfg.CalDAVURL, cfg.CalDAVUsername, cfg.CalDAVPassword, caldavOpts...)

	default:
		oauthConfig, err := auth.OAuthConfig(cfg.GoogleCredentialsPath)
		if err != nil {
			return nil, err
		}
		store := auth.NewFileTokenStore(cfg.TokenPath)
		if opts.reauth {
			if err := store.Clear(); err != nil {
				return nil, err
			}
		}
		if opts.manualAuth {
			if _, err := auth.ValidCredentials(store); errors.Is(err, auth.ErrNoCredentials) {
				if _, err := auth.AuthorizeWithReader(ctx, oauthConfig, store, os.Stdin, stderr); err != nil {
					return nil, err
				}
			}
		}
		httpClient, err := auth.GetAuthenticatedClient(ctx, oauthConfig, store, stderr)
		if err != nil {
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
		return calclient.NewClient(ctx, httpClient, calclient.WithRateLimit(cfg.RequestsPerSecond, 1))
	}
}

// defaultSelection picks the primary and selected calendars.
func defaultSelection(cals []catalog.Descriptor) []string {
	var ids []string
	for _, c := range cals {
		if c.Primary || c.Selected {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func reportFetchError(stderr io.Writer, err error) int {
	if errors.Is(err, auth.ErrNoCredentials) {
		fmt.Fprintln(stderr, "Stored credentials are no longer valid; run again with --reauth")
		return exitFailure
	}
	logger.Named("main").Error().Err(err).Msg("failed to fetch calendar data")
	fmt.Fprintf(stderr, "Failed to fetch calendar data: %v\n", err)
	return exitFailure
}
