/*
stepsnap records a user's interactions with a web page as an ordered
action log and turns it into shareable reports.

Have a look at the README.md for more information.
*/
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/miekg/king"
	"github.com/stepsnap/stepsnap/internal/action"
	"github.com/stepsnap/stepsnap/internal/browser"
	"github.com/stepsnap/stepsnap/internal/config"
	"github.com/stepsnap/stepsnap/internal/describe"
	"github.com/stepsnap/stepsnap/internal/export"
	"github.com/stepsnap/stepsnap/internal/log"
	"github.com/stepsnap/stepsnap/internal/recorder"
	"github.com/stepsnap/stepsnap/internal/render"
	"github.com/stepsnap/stepsnap/internal/server"
	"github.com/stepsnap/stepsnap/internal/session"
	"gopkg.in/yaml.v3"
)

var version = "dev"

const name = "stepsnap"

type VersionFlag string

func (v VersionFlag) Decode(_ *kong.DecodeContext) error { return nil }
func (v VersionFlag) IsBool() bool                       { return true }
func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}

type cli struct {
	Version VersionFlag `short:"v" long:"version" help:"Print the version and exit."`
	Debug   bool        `short:"d" long:"debug" help:"Set log level to 'debug'."`
	Config  string      `short:"c" default:"./stepsnap.yaml" help:"The location of the configuration file." completion:"<file>"`

	Completion CompletionCommand `cmd:"" help:"Generate autocompletion file."`

	ShowConfig ShowConfigCmd `cmd:"" name:"config" help:"Print the effective configuration"`

	Record   RecordCmd   `cmd:"" help:"Record browser interactions with a web page"`
	Export   ExportCmd   `cmd:"" help:"Export a recorded session as json, html or pdf"`
	Sessions SessionsCmd `cmd:"" help:"Manage stored sessions"`
	Serve    ServeCmd    `cmd:"" help:"Run the http api"`
}

type ShellType string

const (
	BASH ShellType = "bash"
	ZSH  ShellType = "zsh"
	FISH ShellType = "fish"
)

var shellTypes = []string{string(BASH), string(ZSH), string(FISH)}

type CompletionCommand struct {
	Shell ShellType `short:"s" help:"The shell that you want to create the autocompletion file for." required:"" enum:"bash,zsh,fish"`
}

func (acc *CompletionCommand) Run() error {
	cli := &cli{}
	parser := kong.Must(cli)

	switch acc.Shell {
	case BASH:
		b := &king.Bash{}
		b.Completion(parser.Model.Node, name)
		return b.Write()
	case ZSH:
		z := &king.Zsh{}
		z.Completion(parser.Model.Node, name)
		return z.Write()
	case FISH:
		f := &king.Fish{}
		f.Completion(parser.Model.Node, name)
		return f.Write()
	default:
		// should not happen due to enum constraint
		return fmt.Errorf("shell type not supported: %s. Must be one of [%s].", acc.Shell, strings.Join(shellTypes, ", "))
	}
}

type ShowConfigCmd struct{}

// Run prints the configuration after file, environment and defaults
// have been merged, mostly useful for debugging deployments that
// configure through the environment.
func (scc *ShowConfigCmd) Run(cfg *config.Config) error {
	redacted := *cfg
	if redacted.Describer.APIKey != "" {
		redacted.Describer.APIKey = "<redacted>"
	}
	if redacted.Server.Redis.Password != "" {
		redacted.Server.Redis.Password = "<redacted>"
	}
	encoded, err := yaml.Marshal(&redacted)
	if err != nil {
		return fmt.Errorf("error while marshaling configuration: %v", err)
	}
	fmt.Print(string(encoded))
	return nil
}

type RecordCmd struct {
	URL     string `short:"u" long:"url" help:"The URL to open for recording." required:""`
	Title   string `short:"t" help:"The title of the recorded session. Defaults to the URL."`
	Out     string `short:"o" help:"The directory the recording log is written to. Defaults to the configured exports directory." completion:"<directory>"`
	NoStore bool   `help:"If set to true the recording is not persisted in the configured store."`
}

func (rc *RecordCmd) Run(cfg *config.Config) error {
	engine := recorder.New()
	rec := browser.New(&cfg.Recorder, engine)
	defer rec.Cancel()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rec.Record(ctx, rc.URL); err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}

	actions := engine.Snapshot()
	if len(actions) == 0 {
		slog.Warn("no actions recorded, nothing to save")
		return nil
	}
	slog.Info(fmt.Sprintf("recorded %d actions", len(actions)))

	title := rc.Title
	if title == "" {
		title = rc.URL
	}
	s := &session.Session{Title: title, Actions: actions}
	id := ""

	if !rc.NoStore {
		store, err := session.NewStore(context.Background(), &cfg.Store)
		if err != nil {
			slog.Error(fmt.Sprintf("%v", err))
			return err
		}
		defer store.Close()
		created, err := store.Create(context.Background(), s)
		if err != nil {
			slog.Error(fmt.Sprintf("error while storing session: %v", err))
			return err
		}
		id = created.ID
		slog.Info(fmt.Sprintf("stored session %s", id))
	}

	exporter := export.NewJSONExporter()
	artifact, err := exporter.Export(context.Background(), s.Snapshot())
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	dir := rc.Out
	if dir == "" {
		dir = cfg.Exports.Dir
	}
	filename := export.Filename(id, time.Now(), exporter.Ext())
	filepath, err := export.Save(dir, artifact, filename)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	slog.Info(fmt.Sprintf("wrote recording log to file %s", filepath))
	return nil
}

type ExportCmd struct {
	ID          string   `long:"id" help:"The id of the stored session to export."`
	Title       string   `short:"t" help:"Look the session up by title instead of id."`
	In          string   `long:"in" help:"Export from a recording log file instead of the store." completion:"<file>"`
	Interactive bool     `short:"i" help:"If set to true, the session is picked interactively from the store."`
	Format      []string `short:"f" default:"json" enum:"json,html,pdf,all" help:"The export format. Can be given multiple times, 'all' selects every format."`
	Out         string   `short:"o" help:"The directory the artifacts are written to. Defaults to the configured exports directory." completion:"<directory>"`
	NoImages    bool     `help:"If set to true captures are not rendered, html and pdf exports carry no images."`
}

func (ec *ExportCmd) Run(cfg *config.Config) error {
	snapshot, err := ec.resolveSnapshot(cfg)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	if len(snapshot.Actions) == 0 {
		slog.Error(export.ErrNoActions.Error())
		return export.ErrNoActions
	}

	opts := export.Options{Locale: cfg.Exports.Locale}
	if !ec.NoImages {
		renderer := render.NewChromeRenderer(&cfg.Renderer)
		defer renderer.Cancel()
		opts.Renderer = renderer
	}

	formats := ec.formats()
	dir := ec.Out
	if dir == "" {
		dir = cfg.Exports.Dir
	}
	for _, format := range formats {
		exporter, err := export.NewExporter(format, opts)
		if err != nil {
			slog.Error(fmt.Sprintf("%v", err))
			return err
		}
		artifact, err := exporter.Export(context.Background(), snapshot)
		if err != nil {
			slog.Error(fmt.Sprintf("error while exporting %s: %v", format, err))
			return err
		}
		filename := export.Filename(snapshot.ID, snapshot.GeneratedAt, exporter.Ext())
		filepath, err := export.Save(dir, artifact, filename)
		if err != nil {
			slog.Error(fmt.Sprintf("%v", err))
			return err
		}
		slog.Info(fmt.Sprintf("wrote %s export to file %s", format, filepath))
	}
	return nil
}

func (ec *ExportCmd) formats() []export.Format {
	formats := []export.Format{}
	for _, f := range ec.Format {
		if f == "all" {
			return []export.Format{export.JSONFormat, export.HTMLFormat, export.PDFFormat}
		}
		formats = append(formats, export.Format(f))
	}
	return formats
}

func (ec *ExportCmd) resolveSnapshot(cfg *config.Config) (*session.Snapshot, error) {
	if ec.In != "" {
		return snapshotFromFile(ec.In)
	}

	store, err := session.NewStore(context.Background(), &cfg.Store)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if ec.Interactive {
		sessions, err := store.List(context.Background())
		if err != nil {
			return nil, err
		}
		picked, err := pickSession(sessions)
		if err != nil {
			return nil, err
		}
		return picked.Snapshot(), nil
	}
	if ec.Title != "" {
		sessions, err := store.List(context.Background())
		if err != nil {
			return nil, err
		}
		s, suggestion := findByTitle(sessions, ec.Title)
		if s == nil {
			if suggestion != "" {
				return nil, fmt.Errorf("no session titled %q, did you mean %q?", ec.Title, suggestion)
			}
			return nil, session.ErrNotFound
		}
		return s.Snapshot(), nil
	}
	if ec.ID == "" {
		return nil, fmt.Errorf("one of --id, --title, --in or --interactive is required")
	}
	s, err := store.GetByID(context.Background(), ec.ID)
	if err != nil {
		return nil, err
	}
	return s.Snapshot(), nil
}

// snapshotFromFile replays a recording log written by the record
// command. Both the full export document and a bare action array are
// accepted.
func snapshotFromFile(path string) (*session.Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error while reading recording log: %v", err)
	}
	var document struct {
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Actions     json.RawMessage `json:"actions"`
	}
	encoded := raw
	if err := json.Unmarshal(raw, &document); err == nil && document.Actions != nil {
		encoded = document.Actions
	}
	actions, err := action.DecodeSlice(encoded)
	if err != nil {
		return nil, err
	}

	// replay through the engine so a log written by an older recorder
	// without coalescing still collapses keystroke runs
	engine := recorder.New()
	if err := engine.Start(); err != nil {
		return nil, err
	}
	for _, a := range actions {
		engine.Append(a)
	}
	engine.Stop()

	title := document.Title
	if title == "" {
		title = path
	}
	return &session.Snapshot{
		Title:       title,
		Description: document.Description,
		Actions:     engine.Snapshot(),
		GeneratedAt: time.Now(),
	}, nil
}

type SessionsCmd struct {
	List     SessionsListCmd     `cmd:"" help:"List stored sessions"`
	Show     SessionsShowCmd     `cmd:"" help:"Show one session including its timeline"`
	Share    SessionsShareCmd    `cmd:"" help:"Toggle sharing for a session"`
	Delete   SessionsDeleteCmd   `cmd:"" help:"Delete a session"`
	Describe SessionsDescribeCmd `cmd:"" help:"Fill in action descriptions using the configured describer"`
}

type SessionsListCmd struct{}

func (slc *SessionsListCmd) Run(cfg *config.Config) error {
	store, err := session.NewStore(context.Background(), &cfg.Store)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	defer store.Close()
	sessions, err := store.List(context.Background())
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	printSessionsTable(sessions)
	return nil
}

type SessionsShowCmd struct {
	ID string `long:"id" required:"" help:"The id of the session to show."`
}

func (ssc *SessionsShowCmd) Run(cfg *config.Config) error {
	store, err := session.NewStore(context.Background(), &cfg.Store)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	defer store.Close()
	s, err := store.GetByID(context.Background(), ssc.ID)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	printSessionDetail(s)
	return nil
}

type SessionsShareCmd struct {
	ID  string `long:"id" required:"" help:"The id of the session."`
	Off bool   `help:"If set to true sharing is revoked instead of granted."`
}

func (ssc *SessionsShareCmd) Run(cfg *config.Config) error {
	store, err := session.NewStore(context.Background(), &cfg.Store)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	defer store.Close()
	s, err := store.SetShared(context.Background(), ssc.ID, !ssc.Off)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	slog.Info(fmt.Sprintf("session %s shared=%t", s.ID, s.IsShared))
	return nil
}

type SessionsDeleteCmd struct {
	ID string `long:"id" required:"" help:"The id of the session to delete."`
}

func (sdc *SessionsDeleteCmd) Run(cfg *config.Config) error {
	store, err := session.NewStore(context.Background(), &cfg.Store)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	defer store.Close()
	if err := store.Delete(context.Background(), sdc.ID); err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	slog.Info(fmt.Sprintf("deleted session %s", sdc.ID))
	return nil
}

type SessionsDescribeCmd struct {
	ID string `long:"id" required:"" help:"The id of the session to describe."`
}

func (sdc *SessionsDescribeCmd) Run(cfg *config.Config) error {
	store, err := session.NewStore(context.Background(), &cfg.Store)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	defer store.Close()
	s, err := store.GetByID(context.Background(), sdc.ID)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}

	describer := describe.New(&cfg.Describer)
	ctx := context.Background()
	described := make([]action.Action, 0, len(s.Actions))
	for _, a := range s.Actions {
		if a.Note() != "" {
			described = append(described, a)
			continue
		}
		text, err := describer.Describe(ctx, a)
		if err != nil {
			// the deterministic summary is the mandatory fallback
			text = action.Summary(a)
		}
		described = append(described, action.WithNote(a, text))
	}
	if _, err := store.Update(ctx, s.ID, session.Patch{Actions: &described}); err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	slog.Info(fmt.Sprintf("described %d actions of session %s", len(described), s.ID))
	return nil
}

type ServeCmd struct{}

func (sc *ServeCmd) Run(cfg *config.Config) error {
	store, err := session.NewStore(context.Background(), &cfg.Store)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	defer store.Close()

	renderer := render.NewChromeRenderer(&cfg.Renderer)
	defer renderer.Cancel()

	srv := server.New(&cfg.Server, store, renderer, describe.New(&cfg.Describer), cfg.Exports.Locale)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := srv.ListenAndServe(ctx); err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	return nil
}

func getVersion() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if ok {
		if buildInfo.Main.Version != "" && buildInfo.Main.Version != "(devel)" {
			return buildInfo.Main.Version
		}
	}
	return version
}

func main() {
	cli := cli{
		Version: VersionFlag(getVersion()),
	}

	ctx := kong.Parse(&cli,
		kong.Vars{
			"version": string(cli.Version),
		})

	log.Debug = cli.Debug
	log.InitializeDefaultLogger()

	cfg, err := config.New(cli.Config)
	ctx.FatalIfErrorf(err)

	err = ctx.Run(cfg)
	ctx.FatalIfErrorf(err)
}
