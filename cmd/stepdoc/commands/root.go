// Package commands implements the stepdoc subcommands.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/livetemplate/stepdoc"
	"github.com/livetemplate/stepdoc/internal/config"
	"github.com/livetemplate/stepdoc/internal/logging"
	"github.com/livetemplate/stepdoc/pkg/export"
	"github.com/livetemplate/stepdoc/pkg/storage"
)

// app carries what every subcommand needs once the root has loaded the config.
type app struct {
	cfg *config.Config
	log *zap.Logger
	now func() time.Time
}

// Root builds the stepdoc command tree.
func Root(version string) *cobra.Command {
	a := &app{now: time.Now, log: zap.NewNop()}
	var configPath string

	cmd := &cobra.Command{
		Use:           "stepdoc",
		Short:         "Build, export and store step-by-step documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a.cfg, a.log = cfg, log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./"+config.FileName+")")

	cmd.AddCommand(exportCmd(a))
	cmd.AddCommand(importCmd(a))
	cmd.AddCommand(saveCmd(a))
	cmd.AddCommand(listCmd(a))
	cmd.AddCommand(loadCmd(a))
	cmd.AddCommand(deleteCmd(a))
	cmd.AddCommand(versionCmd(version))
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadFromDir(".")
	}
	return config.Load(path)
}

// readDocument imports a JSON export, or Markdown when the extension says so.
// A missing title or description is taken from the config.
func (a *app) readDocument(path string) (stepdoc.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return stepdoc.Document{}, &stepdoc.IOError{Op: "read", Err: err}
	}

	var doc stepdoc.Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		doc, err = export.ImportMarkdown(data, nil)
	default:
		doc, err = export.ImportJSON(data)
	}
	if err != nil {
		return stepdoc.Document{}, err
	}

	if strings.TrimSpace(doc.Title) == "" {
		doc.Title = a.cfg.GetTitle()
	}
	if strings.TrimSpace(doc.Description) == "" {
		doc.Description = a.cfg.GetDescription()
	}
	return doc, nil
}

// renderOptions are the per-invocation overrides of the export config.
type renderOptions struct {
	format   string
	theme    string
	password string
}

func (a *app) render(doc stepdoc.Document, opts renderOptions) (string, error) {
	format := opts.format
	if format == "" {
		format = a.cfg.Export.GetFormat()
	}

	switch strings.ToLower(format) {
	case "html":
		name := opts.theme
		if name == "" {
			name = a.cfg.Export.GetTheme()
		}
		theme, ok := export.ThemeByName(name)
		if !ok {
			a.log.Warn("unknown theme, using light", zap.String("theme", name))
		}
		password := opts.password
		if password == "" {
			password = a.cfg.Export.GetPassword()
		}
		return export.HTML(doc, export.HTMLOptions{Theme: theme, Password: password}), nil
	case "md", "markdown":
		return export.MarkdownDocument(doc), nil
	case "json":
		return export.JSON(doc, a.now())
	default:
		return "", &stepdoc.ValidationError{Field: "format", Reason: fmt.Sprintf("unknown format %q", format), Hint: "use html, md or json"}
	}
}

// writeOutput writes content to path, or to w when path is empty.
func writeOutput(w io.Writer, path, content string) error {
	if path == "" {
		_, err := io.WriteString(w, content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return &stepdoc.IOError{Op: "write", Err: err}
	}
	return nil
}

// openStore connects the configured storage adapter to a fresh store.
func (a *app) openStore(ctx context.Context) (*stepdoc.Store, func(), error) {
	h, err := storage.Open(ctx, storage.Options{
		Driver:   a.cfg.Storage.GetDriver(),
		DSN:      a.cfg.Storage.GetDSN(),
		CacheTTL: a.cfg.Storage.GetCacheTTL(),
		Logger:   a.log,
	})
	if err != nil {
		return nil, nil, err
	}
	store := stepdoc.NewStore(stepdoc.WithAdapter(h), stepdoc.WithLogger(a.log))
	closeFn := func() {
		if err := h.Close(); err != nil {
			a.log.Warn("closing storage", zap.Error(err))
		}
	}
	return store, closeFn, nil
}

func versionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stepdoc version %s\n", version)
		},
	}
}
