// Package commands implements the criteria command line: inspecting a metamodel, resolving
// attribute paths, and rendering or running criteria queries against a database.
package commands

import (
	"database/sql"
	"fmt"
	"runtime"

	"github.com/fatih/color"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/criteria/internal/cli/config"
	"github.com/conduit-lang/criteria/internal/cli/ui"
	"github.com/conduit-lang/criteria/internal/orm/schema"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// globalOptions are the persistent flags shared by every subcommand
type globalOptions struct {
	configFile string
	metamodel  string
	verbose    bool
	noColor    bool
}

// session is the loaded configuration and metamodel a command works on
type session struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *schema.Registry
	model    *schema.Model
	noColor  bool
}

func (o *globalOptions) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if o.configFile != "" {
		cfg, err = config.LoadFile(o.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if o.metamodel != "" {
		cfg.Metamodel = o.metamodel
	}
	if o.verbose {
		cfg.Log.Verbose = true
	}
	return cfg, nil
}

// open loads configuration and builds the metamodel
func (o *globalOptions) open(cmd *cobra.Command) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		ui.ConfigError(err, o.noColor).Write(cmd.ErrOrStderr())
		return nil, err
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	// An explicit --metamodel is relative to the working directory
	path := cfg.MetamodelPath()
	if o.metamodel != "" {
		path = o.metamodel
	}

	registry, err := schema.LoadRegistry(path, schema.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	model, err := registry.Build()
	if err != nil {
		return nil, err
	}

	for _, warning := range registry.Warnings() {
		ui.Warning(warning, o.noColor).Write(cmd.ErrOrStderr())
	}

	return &session{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		model:    model,
		noColor:  o.noColor,
	}, nil
}

// entity looks up a mapped entity, printing suggestions when it is unknown
func (s *session) entity(cmd *cobra.Command, name string) (*schema.EntityType, error) {
	e, ok := s.model.Entity(name)
	if !ok {
		ui.EntityNotFound(name, s.model.Names(), s.noColor).Write(cmd.ErrOrStderr())
		return nil, fmt.Errorf("unknown entity %s", name)
	}
	return e, nil
}

// openDB connects to the configured database
func (s *session) openDB() (*sql.DB, error) {
	if s.cfg.Database.URL == "" {
		return nil, fmt.Errorf("database.url is not set (use criteria.yaml or CRITERIA_DATABASE_URL)")
	}

	db, err := sql.Open(s.cfg.DriverName(), s.cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func (s *session) close() {
	_ = s.logger.Sync()
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "criteria",
		Short: "Typed path navigation and polymorphic type queries over a mapped metamodel",
		Long: color.CyanString(`criteria - typed criteria queries

Loads an entity metamodel, resolves attribute paths against it and renders
criteria queries, including type restrictions over inheritance hierarchies,
to SQL for PostgreSQL or SQLite.`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "Config file (default ./criteria.yaml)")
	flags.StringVarP(&opts.metamodel, "metamodel", "m", "", "Metamodel file, overrides the config")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log executed statements")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newInspectCommand(opts))
	rootCmd.AddCommand(newResolveCommand(opts))
	rootCmd.AddCommand(newSQLCommand(opts))
	rootCmd.AddCommand(newCountCommand(opts))
	rootCmd.AddCommand(newFindCommand(opts))
	rootCmd.AddCommand(newDDLCommand(opts))
	rootCmd.AddCommand(newSeedCommand(opts))

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			table := ui.NewKeyValueTable(cmd.OutOrStdout(), color.NoColor)
			table.AddRow("criteria version", Version)
			table.AddRow("Git commit", GitCommit)
			table.AddRow("Build date", BuildDate)
			table.AddRow("Go version", goVer)
			table.Render()
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
