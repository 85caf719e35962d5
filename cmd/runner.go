package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytboxd/internal/models"
	"github.com/desertthunder/ytboxd/internal/repositories"
	"github.com/desertthunder/ytboxd/internal/services"
	"github.com/desertthunder/ytboxd/internal/shared"
	"github.com/desertthunder/ytboxd/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the runner's logger, used when the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, syncCommand, tagsCommand, snapshotCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the effective config for a command: the --config
// flag when the file exists, otherwise the runner's config.
func (r *Runner) loadConfig(cmd *cli.Command) *shared.Config {
	path := cmd.String("config")
	if path == "" {
		path = r.configPath
	}

	if _, err := os.Stat(path); err == nil {
		if config, err := shared.LoadConfig(path); err == nil {
			return config
		}
		r.logger.Warn("failed to load config, using defaults", "path", path)
	}

	return r.config
}

// library bundles an open database connection with the repositories and
// the account it serves.
type library struct {
	db        *sql.DB
	config    *shared.Config
	users     *repositories.UserRepository
	creds     *repositories.CredentialRepository
	videos    *repositories.VideoRepository
	playlists *repositories.PlaylistRepository
	tags      *repositories.TagRepository
	videoTags *repositories.VideoTagRepository
	user      *models.User
}

func (l *library) Close() error {
	return l.db.Close()
}

// openLibrary opens the configured database, runs pending migrations and
// wires the repositories. When requireUser is set the signed-in account
// must exist, otherwise the command cannot proceed.
func (r *Runner) openLibrary(cmd *cli.Command, requireUser bool) (*library, error) {
	config := r.loadConfig(cmd)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	lib := &library{
		db:        db,
		config:    config,
		users:     repositories.NewUserRepository(db),
		creds:     repositories.NewCredentialRepository(db),
		videos:    repositories.NewVideoRepository(db),
		playlists: repositories.NewPlaylistRepository(db),
		tags:      repositories.NewTagRepository(db),
		videoTags: repositories.NewVideoTagRepository(db),
	}

	users, err := lib.users.List(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if len(users) > 0 {
		lib.user = users[0]
	} else if requireUser {
		db.Close()
		return nil, fmt.Errorf("%w: run 'ytboxd auth login' first", shared.ErrNoCredential)
	}

	return lib, nil
}

// buildEngine wires a sync engine for the library's account: a token
// guard over the stored credential feeding the YouTube and Drive clients.
func (r *Runner) buildEngine(lib *library) *tasks.LibraryEngine {
	oauthConfig := services.NewGoogleOAuthConfig(lib.config.Credentials.Google)
	guard := services.NewTokenGuard(oauthConfig, lib.creds, lib.user.ID(), r.logger)

	return tasks.NewLibraryEngine(tasks.EngineConfig{
		Source:    services.NewYouTubeService("", guard, r.logger),
		Store:     services.NewDriveService("", "", guard, r.logger),
		Videos:    lib.videos,
		Playlists: lib.playlists,
		Tags:      lib.tags,
		VideoTags: lib.videoTags,
		User:      lib.user,
		Drive:     lib.config.Drive,
		Logger:    r.logger,
	})
}

// withProgress runs fn while printing every progress update it emits.
func (r *Runner) withProgress(fn func(progress chan<- tasks.ProgressUpdate) error) error {
	progress := make(chan tasks.ProgressUpdate, 8)
	done := make(chan struct{})

	go func() {
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
		close(done)
	}()

	err := fn(progress)
	close(progress)
	<-done
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
