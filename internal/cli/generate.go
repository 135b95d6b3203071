package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zrkn/eventd/internal/decl"
	"github.com/zrkn/eventd/internal/gen"
)

type generateOptions struct {
	file       string
	output     string
	pkg        string
	importPath string
}

func newGenerateCmd(g *globals) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate Go event types from a declaration file",
		Long: "Generate writes one Go type per declared event. The output path " +
			"defaults to the file's output setting; without one the source is " +
			"written to standard output.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, g, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "declaration file (.toml, .yaml)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, - for standard output")
	cmd.Flags().StringVarP(&opts.pkg, "package", "p", "", "package name, overrides the file")
	cmd.Flags().StringVar(&opts.importPath, "event-import", gen.DefaultImportPath, "import path of the event package")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runGenerate(cmd *cobra.Command, g *globals, opts *generateOptions) error {
	log := g.logger()

	f, err := decl.Load(opts.file)
	if err != nil {
		return err
	}

	src, err := gen.New(
		gen.WithPackage(opts.pkg),
		gen.WithImportPath(opts.importPath),
		gen.WithSource(filepath.Base(opts.file)),
	).Generate(f)
	if err != nil {
		return fmt.Errorf("generate %s: %w", opts.file, err)
	}

	out := opts.output
	if out == "" && f.Output != "" {
		// Relative output paths in the file are relative to the file.
		out = f.Output
		if !filepath.IsAbs(out) {
			out = filepath.Join(filepath.Dir(opts.file), out)
		}
	}
	if out == "" || out == "-" {
		_, err := cmd.OutOrStdout().Write(src)
		return err
	}

	if err := os.WriteFile(out, src, 0o644); err != nil {
		return fmt.Errorf("write generated source: %w", err)
	}
	log.Info("generated",
		zap.String("file", opts.file),
		zap.String("output", out),
		zap.Int("events", len(f.Events)),
	)
	return nil
}
