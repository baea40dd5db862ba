package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/livetemplate/stepdoc/internal/watch"
)

func exportCmd(a *app) *cobra.Command {
	var (
		opts   renderOptions
		output string
		follow bool
	)

	cmd := &cobra.Command{
		Use:   "export <doc.json|doc.md>",
		Short: "Render a document as HTML, Markdown or JSON",
		Example: `  stepdoc export guide.json -o guide.html
  stepdoc export guide.json --format md
  stepdoc export guide.json --theme dark --password s3cret -o guide.html
  stepdoc export guide.json -o guide.html --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			run := func(string) error {
				doc, err := a.readDocument(path)
				if err != nil {
					return err
				}
				out, err := a.render(doc, opts)
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), output, out)
			}

			if !follow {
				return run(path)
			}
			if output == "" {
				return errors.New("--watch needs an output file (-o)")
			}
			if err := run(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s, writing %s (Ctrl+C to stop)\n", path, output)

			w, err := watch.New(path, func(string) error {
				if err := run(path); err != nil {
					return err
				}
				a.log.Info("re-exported", zap.String("output", output))
				return nil
			}, a.log)
			if err != nil {
				return err
			}
			return w.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "", "output format: html, md or json (default from config)")
	cmd.Flags().StringVar(&opts.theme, "theme", "", "HTML theme: light, gray or dark")
	cmd.Flags().StringVar(&opts.password, "password", "", "lock the HTML export behind a password prompt")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&follow, "watch", false, "re-export whenever the input changes")
	return cmd
}

func importCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "import <doc.md>",
		Short: "Convert a Markdown file into a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.readDocument(args[0])
			if err != nil {
				return err
			}
			out, err := a.render(doc, renderOptions{format: "json"})
			if err != nil {
				return err
			}
			a.log.Debug("imported", zap.String("path", args[0]), zap.Int("steps", doc.StepCount()))
			return writeOutput(cmd.OutOrStdout(), output, out+"\n")
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
