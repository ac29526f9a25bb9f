// Package main provides the CLI entry point for docxmerge.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benjaminschreck/docxmerge/pkg/docxmerge"
)

var (
	templatePath string
	dataPath     string
	auxPaths     []string
	imageDir     string
	imageWidth   float64
	outputDir    string
	workers      int
	configPath   string
	verbose      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "docxmerge",
		Short: "Bulk-generate DOCX documents from a template and Excel data",
		Long: `docxmerge fills a DOCX template's {placeholder} tokens from an Excel
dataset, one document per data row, populating roster tables from linked
auxiliary workbooks, and packages all outputs into a single ZIP archive.`,
		RunE: run,
	}

	rootCmd.Flags().StringVarP(&templatePath, "template", "t", "", "DOCX template file (required)")
	rootCmd.Flags().StringVarP(&dataPath, "data", "d", "", "Primary Excel dataset (required)")
	rootCmd.Flags().StringArrayVarP(&auxPaths, "aux", "a", nil, "Auxiliary Excel file, repeatable")
	rootCmd.Flags().StringVar(&imageDir, "images", "", "Folder containing referenced images")
	rootCmd.Flags().Float64Var(&imageWidth, "image-width", 0, "Image display width in inches")
	rootCmd.Flags().StringVarP(&outputDir, "out", "o", ".", "Destination folder for the archive")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Worker pool size (default: min(4, CPUs))")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML settings file")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	cobra.CheckErr(rootCmd.MarkFlagRequired("template"))
	cobra.CheckErr(rootCmd.MarkFlagRequired("data"))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()
	docxmerge.SetLogger(logger)

	opts, err := loadOptions()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	progress := make(chan docxmerge.ProgressEvent)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range progress {
			fmt.Printf("[%3.0f%%] %s\n", ev.Percent, ev.Message)
		}
	}()

	tpl, err := docxmerge.LoadTemplate(templatePath)
	if err != nil {
		return err
	}
	ds, err := docxmerge.LoadDataset(dataPath)
	if err != nil {
		return err
	}
	aux, err := docxmerge.BuildAuxiliaryIndex(auxPaths)
	if err != nil {
		return err
	}
	rc, err := docxmerge.NewRenderContext(tpl, ds, aux, opts)
	if err != nil {
		return err
	}

	result, err := docxmerge.NewGenerator(rc).WithProgress(progress).Run(ctx, outputDir)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	for _, rowErr := range result.RowErrors {
		fmt.Fprintf(os.Stderr, "skipped: %v\n", rowErr)
	}
	fmt.Printf("Generated %d documents in %s", result.Generated, result.ArchivePath)
	if result.Failed > 0 {
		fmt.Printf(" (%d rows failed)", result.Failed)
	}
	fmt.Println()
	return nil
}

// loadOptions merges the optional settings file under the command flags.
func loadOptions() (docxmerge.Options, error) {
	opts := docxmerge.DefaultOptions()
	if configPath != "" {
		loaded, err := docxmerge.LoadOptionsFile(configPath)
		if err != nil {
			return opts, err
		}
		opts = loaded
	}
	if imageDir != "" {
		opts.ImageDir = imageDir
	}
	if imageWidth > 0 {
		opts.ImageWidthInches = imageWidth
	}
	if workers > 0 {
		opts.Workers = workers
	}
	return opts, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}
