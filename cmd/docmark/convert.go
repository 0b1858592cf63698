package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/docforge/docmark/convert"
)

var convertCmd = &cobra.Command{
	Use:   "convert [files or directories...]",
	Short: "Convert .docx files to Markdown",
	Long: `Convert writes <out>/<basename>.md for each input document, plus any
embedded images under <out>/images/. Directories are scanned for .docx
files, non-recursively.

Failures are per-file: a malformed document is reported and skipped
while the rest of the batch completes.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringP("out", "o", ".", "output directory")
	convertCmd.Flags().IntP("workers", "w", 1, "number of concurrent conversions")
	convertCmd.Flags().Bool("no-pandoc", false, "skip pandoc and use the built-in parser")
	convertCmd.Flags().String("pandoc", "", "path to the pandoc binary (default: search PATH)")

	viper.BindPFlag("out", convertCmd.Flags().Lookup("out"))
	viper.BindPFlag("workers", convertCmd.Flags().Lookup("workers"))
	viper.BindPFlag("no-pandoc", convertCmd.Flags().Lookup("no-pandoc"))
	viper.BindPFlag("pandoc", convertCmd.Flags().Lookup("pandoc"))

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputs, err := collectInputs(args)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no .docx files found in the given paths")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	converter := convert.New(convert.Options{
		Workers:        viper.GetInt("workers"),
		DisablePrimary: viper.GetBool("no-pandoc"),
		PandocPath:     viper.GetString("pandoc"),
	})

	outDir := viper.GetString("out")
	progress := func(done, total int, file string) {
		fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", done, total, filepath.Base(file))
	}
	report := converter.ConvertBatch(ctx, inputs, outDir, progress)

	for _, res := range report.Results {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "FAILED %s: %v\n", filepath.Base(res.Input), res.Err)
		}
	}
	fmt.Fprintf(os.Stderr, "%d converted, %d failed\n", report.Succeeded(), report.Failed())

	if report.Failed() > 0 {
		return fmt.Errorf("%d of %d conversions failed", report.Failed(), len(report.Results))
	}
	return nil
}

// collectInputs expands arguments into a flat list of document paths.
func collectInputs(args []string) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			inputs = append(inputs, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if strings.EqualFold(filepath.Ext(e.Name()), ".docx") {
				inputs = append(inputs, filepath.Join(arg, e.Name()))
			}
		}
	}
	return inputs, nil
}
