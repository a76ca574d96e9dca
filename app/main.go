package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	log "github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/random-theme/app/catalog"
	"github.com/umputun/random-theme/app/enum"
	"github.com/umputun/random-theme/app/history"
	"github.com/umputun/random-theme/app/picker"
	"github.com/umputun/random-theme/app/server"
	"github.com/umputun/random-theme/app/store"
	"github.com/umputun/random-theme/app/switcher"
)

var opts struct {
	DB      string `short:"d" long:"db" env:"RANDOM_THEME_DB" default:"random-theme.db" description:"store URL (sqlite file, postgres://..., props://file or *.properties/*.txt prefs file)"`
	Key     string `short:"k" long:"key" env:"RANDOM_THEME_KEY" default:"swingLookAndFeel" description:"configuration key holding the theme id"`
	Catalog string `short:"c" long:"catalog" env:"RANDOM_THEME_CATALOG" description:"theme catalog yaml file (embedded catalog if empty)"`

	Current bool `long:"current" description:"show current theme and exit"`
	List    bool `long:"list" description:"list themes of the command's group and exit"`
	History int  `long:"history" default:"0" description:"show last N theme changes and exit (requires git history)"`

	Git struct {
		Enabled bool   `long:"enabled" env:"ENABLED" description:"record theme changes in git"`
		Path    string `long:"path" env:"PATH" default:".theme-history" description:"git repository path"`
		Branch  string `long:"branch" env:"BRANCH" default:"master" description:"git branch"`
		Remote  string `long:"remote" env:"REMOTE" description:"git remote name (optional)"`
		SSHKey  string `long:"ssh-key" env:"SSH_KEY" description:"ssh private key for push (optional)"`
		Push    bool   `long:"push" env:"PUSH" description:"push after every change"`
	} `group:"git" namespace:"git" env-namespace:"RANDOM_THEME_GIT"`

	Server struct {
		Enabled     bool          `long:"enabled" env:"ENABLED" description:"run http api instead of a single switch"`
		Address     string        `long:"address" env:"ADDRESS" default:":8484" description:"server listen address"`
		ReadTimeout time.Duration `long:"read-timeout" env:"READ_TIMEOUT" default:"5s" description:"read timeout"`
		CacheTTL    time.Duration `long:"cache-ttl" env:"CACHE_TTL" default:"5s" description:"ttl of cached reads of the current theme"`
	} `group:"server" namespace:"server" env-namespace:"RANDOM_THEME_SERVER"`

	Args struct {
		Command string `positional-arg-name:"command" description:"? | help | all | light | dark"`
	} `positional-args:"yes"`

	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `long:"version" description:"show version and exit"`
}

var revision = "unknown"

const usage = "? | help | all | light | dark"

// errInvalidCommand is returned for an unknown command token, message is already shown to the user
var errInvalidCommand = errors.New("invalid command")

var bold = lipgloss.NewStyle().Bold(true)

func main() {
	p := flags.NewParser(&opts, flags.PassDoubleDash|flags.HelpFlag)
	rest, err := p.Parse()
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			p.WriteHelp(os.Stderr)
			os.Exit(2)
		}
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("random-theme %s\n", revision)
		os.Exit(0)
	}

	setupLogs(opts.Debug)

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	signals(cancel)

	if err := run(ctx, commandLine(opts.Args.Command, rest)); err != nil {
		if !errors.Is(err, errInvalidCommand) {
			log.Printf("[ERROR] failed: %v", err)
		}
		os.Exit(1)
	}
}

// commandLine joins positional args into a single trimmed command
func commandLine(cmd string, rest []string) string {
	return strings.TrimSpace(strings.Join(append([]string{cmd}, rest...), " "))
}

func run(ctx context.Context, cmd string) error {
	// the command token is resolved before anything is opened, help and invalid tokens touch no state
	var group enum.Group
	if !opts.Server.Enabled && !opts.Current && opts.History <= 0 {
		g, ok, err := commandGroup(cmd)
		if !ok {
			return err
		}
		group = g
	}

	cat, err := loadCatalog(opts.Catalog)
	if err != nil {
		return err
	}

	kvStore, err := store.New(opts.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer kvStore.Close()

	hist, err := openHistory()
	if err != nil {
		return err
	}

	if opts.Server.Enabled {
		return runServer(ctx, kvStore, cat, hist)
	}

	var rec switcher.Recorder
	if hist != nil {
		rec = hist
	}
	sw := switcher.New(kvStore, cat, picker.New(nil), opts.Key, rec)

	switch {
	case opts.Current:
		return showCurrent(ctx, sw)
	case opts.History > 0:
		return showHistory(hist, opts.History)
	case opts.List:
		for _, th := range sw.Pool(group) {
			fmt.Printf("%-32s %s\n", th.Name, th.ID)
		}
		return nil
	}

	res, err := sw.Switch(ctx, group)
	if err != nil {
		return fmt.Errorf("failed to switch theme: %w", err)
	}
	fmt.Printf("Changed theme to %s\n", bold.Render(res.Theme.Name))
	return nil
}

// commandGroup maps the command token to a group. ok is false when there is nothing
// to switch: usage printed for help tokens, or errInvalidCommand for unknown ones.
func commandGroup(cmd string) (g enum.Group, ok bool, err error) {
	if opts.List && cmd == "" {
		cmd = enum.GroupAll.String()
	}

	switch cmd {
	case "", "?", "help":
		fmt.Printf("Usage: %s %s\n", bold.Render("random-theme"), usage)
		return enum.Group{}, false, nil
	}

	g, err = enum.ParseGroup(cmd)
	if err != nil || cmd != g.String() {
		fmt.Printf("Invalid command: %s\nUse %s for usage\n", cmd, bold.Render("random-theme help"))
		return enum.Group{}, false, fmt.Errorf("%w %q", errInvalidCommand, cmd)
	}
	return g, true, nil
}

func showCurrent(ctx context.Context, sw *switcher.Switcher) error {
	th, ok, err := sw.Current(ctx)
	if err != nil {
		return err
	}
	switch {
	case !ok:
		fmt.Println("No theme set")
	case th.Name == "":
		fmt.Printf("Current theme: %s (not in catalog)\n", th.ID)
	default:
		g, _ := sw.Catalog().GroupOf(th.ID)
		fmt.Printf("Current theme: %s (%s)\n", bold.Render(th.Name), g)
	}
	return nil
}

func showHistory(hist *history.Store, limit int) error {
	if hist == nil {
		return errors.New("history requires --git.enabled")
	}
	entries, err := hist.History(opts.Key, limit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	for _, e := range entries {
		fmt.Printf("%s %s %-32s %s\n", e.Hash, e.Timestamp.Format(time.DateTime), e.Name, e.Group)
	}
	return nil
}

func runServer(ctx context.Context, kvStore store.Interface, cat *catalog.Catalog, hist *history.Store) error {
	cached, err := store.NewCached(kvStore, 16, opts.Server.CacheTTL)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	var rec switcher.Recorder
	var hr server.HistoryReader
	if hist != nil {
		rec, hr = hist, hist
	}

	sw := switcher.New(cached, cat, picker.New(nil), opts.Key, rec)
	srv := server.New(sw, hr, server.Config{
		Address:     opts.Server.Address,
		ReadTimeout: opts.Server.ReadTimeout,
		Version:     revision,
	})
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	log.Printf("[DEBUG] loaded catalog %s, %d light and %d dark themes", path, len(cat.Light), len(cat.Dark))
	return cat, nil
}

// openHistory returns nil store if git history is disabled
func openHistory() (*history.Store, error) {
	if !opts.Git.Enabled {
		return nil, nil
	}
	hist, err := history.New(history.Config{
		Path:   opts.Git.Path,
		Branch: opts.Git.Branch,
		Remote: opts.Git.Remote,
		SSHKey: opts.Git.SSHKey,
		Push:   opts.Git.Push,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize git history: %w", err)
	}
	log.Printf("[DEBUG] git history enabled, path: %s, branch: %s", opts.Git.Path, opts.Git.Branch)
	return hist, nil
}

// setupLogs sends logs to stderr, stdout is reserved for command output
func setupLogs(debug bool) {
	if debug {
		log.Setup(log.Debug, log.Msec, log.LevelBraces, log.CallerFunc, log.CallerPkg, log.CallerFile, log.Out(os.Stderr))
		return
	}
	log.Setup(log.Msec, log.LevelBraces, log.Out(os.Stderr))
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			switch sig {
			case syscall.SIGQUIT:
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
			case syscall.SIGTERM, syscall.SIGINT:
				cancel()
			}
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
}
