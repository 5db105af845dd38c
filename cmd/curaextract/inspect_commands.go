package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"curaextract/internal/manufacturer"
	"curaextract/internal/userdata"
)

func newMachinesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "machines",
		Short: "List configured machines with their chain and manufacturer",
		RunE: func(cmd *cobra.Command, args []string) error {
			extractor, err := ctx.extractor()
			if err != nil {
				return err
			}
			names := extractor.Discover().Machines
			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintln(out, "No machines found")
				return nil
			}
			view := newTableView(left("Machine"), left("Definition"), left("Manufacturer"), right("Chain"), left("Complete"))
			for _, name := range names {
				res, err := extractor.ResolveMachine(name)
				if err != nil {
					view.add(name, "-", "-", "-", "error: "+err.Error())
					continue
				}
				view.add(name, res.Leaf, manufacturerLabel(res.Manufacturer), strconv.Itoa(res.Chain.Len()), yesNo(res.Chain.Complete()))
			}
			view.render(out)
			return nil
		},
	}
}

func newChainCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "chain <definition>",
		Short: "Show the inheritance chain of a definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			extractor, err := ctx.extractor()
			if err != nil {
				return err
			}
			chain := extractor.Chain(args[0])
			out := cmd.OutOrStdout()
			if chain.Len() == 0 {
				if err := chain.Err(); err != nil {
					return fmt.Errorf("resolve chain: %w", err)
				}
				return fmt.Errorf("resolve chain: definition %q not found", args[0])
			}

			root := cfg.DefinitionsDir()
			view := newTableView(right("#"), left("Role"), left("Definition"), left("Display name"), left("File"))
			for i, doc := range chain.Documents {
				view.add(strconv.Itoa(i+1), chainRole(chain, i), doc.Name, doc.DisplayName, displayPath(root, doc.Path))
			}
			view.render(out)
			fmt.Fprintf(out, "Manufacturer: %s\n", manufacturerLabel(extractor.Classify(chain)))
			if err := chain.Err(); err != nil {
				fmt.Fprintf(out, "Warning: %v\n", err)
			}
			return nil
		},
	}
}

func newQualitiesCommand(ctx *commandContext) *cobra.Command {
	var machine string

	cmd := &cobra.Command{
		Use:   "qualities",
		Short: "List the built-in quality presets a machine would use",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			extractor, err := ctx.extractor()
			if err != nil {
				return err
			}

			tag := cfg.Overrides().Manufacturer
			if name := strings.TrimSpace(machine); name != "" {
				res, err := extractor.ResolveMachine(name)
				if err != nil {
					return err
				}
				tag = res.Manufacturer
			}

			dirs, result := extractor.Qualities(tag)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Manufacturer: %s\n", manufacturerLabel(tag))
			fmt.Fprintln(out, "Search directories:")
			for _, dir := range dirs {
				fmt.Fprintf(out, "  %s\n", dir)
			}

			types := result.Types()
			if len(types) == 0 {
				fmt.Fprintln(out, "No quality presets found")
			} else {
				view := newTableView(left("Type"), left("Name"), right("Settings"), left("File"))
				for _, qualityType := range types {
					profile := result.Profiles[qualityType]
					view.add(qualityType, profile.Name, strconv.Itoa(len(profile.Settings)), displayPath(cfg.QualityDir(), profile.File))
				}
				view.render(out)
			}
			newPrinter(out).diagnostics(result.Diagnostics)
			return nil
		},
	}

	cmd.Flags().StringVarP(&machine, "machine", "m", "", "Derive the manufacturer from this machine")
	return cmd
}

func newDiscoverCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List machines, custom presets and built-in quality names",
		RunE: func(cmd *cobra.Command, args []string) error {
			extractor, err := ctx.extractor()
			if err != nil {
				return err
			}
			found := extractor.Discover()
			if asJSON {
				return writeJSON(cmd, found)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cura version: %s\n\n", found.CuraVersion)
			p := newPrinter(out)
			p.list("Machines", found.Machines)
			p.list("Custom profiles", found.CustomProfiles)
			p.list("Built-in qualities", found.BuiltinQualities)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the listing as JSON")
	return cmd
}

var errPathsInvalid = errors.New("path validation failed")

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the install and user data directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())

			if err := cfg.RequireRoots(); err != nil {
				p.status("Roots", statusError, err.Error())
				return errPathsInvalid
			}
			p.status("Install", statusOK, cfg.Paths.InstallDir)
			p.status("User data", statusOK, cfg.Paths.UserDataDir)
			p.status("Cura version", statusInfo, userdata.CuraVersion(cfg.Paths.InstallDir))

			extractor, err := ctx.extractor()
			if err != nil {
				return err
			}
			problems := extractor.ValidatePaths()
			for _, problem := range problems {
				p.status("Layout", statusError, problem)
			}
			if len(problems) > 0 {
				return errPathsInvalid
			}
			p.status("Layout", statusOK, "")
			return nil
		},
	}
}

func manufacturerLabel(tag string) string {
	if tag == "" {
		return "(generic)"
	}
	return fmt.Sprintf("%s (%s)", manufacturer.DisplayName(tag), tag)
}
