package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"curaextract/internal/config"
	"curaextract/internal/extract"
	"curaextract/internal/fileutil"
	"curaextract/internal/history"
)

type sectionFlags struct {
	noPreferences bool
	noMachine     bool
	noStartup     bool
	noExtruders   bool
	noQuality     bool
	noCustom      bool
}

func (f sectionFlags) apply(base config.Extraction) config.Extraction {
	out := base
	out.Preferences = base.Preferences && !f.noPreferences
	out.MachineSettings = base.MachineSettings && !f.noMachine
	out.StartupSequences = base.StartupSequences && !f.noStartup
	out.Extruders = base.Extruders && !f.noExtruders
	out.QualityBuiltin = base.QualityBuiltin && !f.noQuality
	out.QualityCustom = base.QualityCustom && !f.noCustom
	return out
}

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var machine string
	var outputPath string
	var format string
	var sections sectionFlags

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Resolve a machine and write the merged settings report",
		Long: "Resolve a machine's definition chain, merge its settings with the user's\n" +
			"changes and write the full report. Without --machine the active machine\n" +
			"from cura.cfg is used. Without --output the report goes to stdout.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			outFormat, err := resolveFormat(format, outputPath)
			if err != nil {
				return err
			}
			target := strings.TrimSpace(outputPath)
			if target != "" {
				if target, err = config.ExpandPath(target); err != nil {
					return fmt.Errorf("resolve output path: %w", err)
				}
			}

			extractor, err := ctx.extractor()
			if err != nil {
				return err
			}

			lock, err := fileutil.AcquireRunLock(cfg.LockPath())
			if err != nil {
				if errors.Is(err, fileutil.ErrLocked) {
					return fmt.Errorf("another extraction is running: %w", err)
				}
				return err
			}
			defer lock.Release()

			name := strings.TrimSpace(machine)
			if name == "" {
				name = extractor.ActiveMachine()
				if name == "" {
					return errors.New("no --machine given and cura.cfg names no active machine; run `curaextract machines` to list them")
				}
			}

			started := time.Now()
			report, err := extractor.Extract(name, sections.apply(cfg.Extraction))
			if err != nil {
				ctx.recordRun(cmd.Context(), &history.Run{
					RunID:        uuid.NewString(),
					Machine:      name,
					OutputPath:   target,
					Status:       history.StatusFailed,
					ErrorMessage: err.Error(),
					StartedAt:    started,
					FinishedAt:   time.Now(),
				})
				return fmt.Errorf("extract %q: %w", name, err)
			}

			data, err := encodeDocument(report, outFormat)
			if err != nil {
				return err
			}
			if target == "" {
				if _, err := cmd.OutOrStdout().Write(data); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
			} else {
				if err := fileutil.WriteFileAtomic(target, data, 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s report for %s to %s\n", outFormat, name, target)
			}

			ctx.recordRun(cmd.Context(), runFromReport(report, target, started))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&machine, "machine", "m", "", "Machine name as shown in the slicer")
	flags.StringVarP(&outputPath, "output", "o", "", "Write the report to this file instead of stdout")
	flags.StringVarP(&format, "format", "f", "", "Output format: json or yaml (default from --output extension, else json)")
	flags.BoolVar(&sections.noPreferences, "no-preferences", false, "Omit cura.cfg preferences")
	flags.BoolVar(&sections.noMachine, "no-machine", false, "Omit the machine section and effective settings")
	flags.BoolVar(&sections.noStartup, "no-startup", false, "Omit start/end g-code sequences")
	flags.BoolVar(&sections.noExtruders, "no-extruders", false, "Omit extruder stacks")
	flags.BoolVar(&sections.noQuality, "no-quality", false, "Omit built-in quality presets")
	flags.BoolVar(&sections.noCustom, "no-custom", false, "Omit custom quality presets")
	return cmd
}

func runFromReport(report *extract.Report, outputPath string, started time.Time) *history.Run {
	run := &history.Run{
		RunID:       report.Metadata.RunID,
		Machine:     report.Metadata.Machine,
		Diagnostics: len(report.Diagnostics),
		OutputPath:  outputPath,
		Status:      history.StatusSuccess,
		StartedAt:   started,
		FinishedAt:  time.Now(),
	}
	if res := report.Resolved; res != nil {
		run.Manufacturer = res.Manufacturer
		run.LeafDefinition = res.Leaf
		run.ChainLength = res.Chain.Len()
		run.SettingsCount = len(res.Settings)
	} else {
		run.Status = history.StatusFailed
		run.ErrorMessage = report.ResolveError
	}
	return run
}
