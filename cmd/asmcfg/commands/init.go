package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/FinixEz/Interactive-CFG-Comparison-Web-Application/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create asmcfg configuration interactively",
	Long: `Guides you through setting up asmcfg configuration step by step and
writes a config file with dialect, architecture and preprocessing limits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	cfg := config.DefaultConfig()

	var dialect, arch string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default dialect").
				Description("How assembly files are scanned when not set per call").
				Options(
					huh.NewOption("By file extension (.asm = MASM, otherwise GNU)", ""),
					huh.NewOption("MASM", "masm"),
					huh.NewOption("GNU", "gnu"),
				).
				Value(&dialect),
			huh.NewSelect[string]().
				Title("Default architecture").
				Options(
					huh.NewOption("Auto-detect", ""),
					huh.NewOption("x86_64", "x86_64"),
					huh.NewOption("arm64", "arm64"),
				).
				Value(&arch),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.Dialect = dialect
	cfg.Arch = arch

	depth := strconv.Itoa(cfg.MaxIncludeDepth)
	ratio := strconv.Itoa(cfg.MaxExpandRatio)
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Maximum include nesting depth").
				Placeholder(depth).
				Value(&depth).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Maximum expansion ratio (expanded size as a multiple of input)").
				Placeholder(ratio).
				Value(&ratio).
				Validate(validatePositiveInt),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.MaxIncludeDepth, _ = strconv.Atoi(depth)
	cfg.MaxExpandRatio, _ = strconv.Atoi(ratio)

	var global bool
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Where should the config be written?").
				Affirmative("Globally (~/.asmcfg/config.yaml)").
				Negative("This project (./.asmcfg/config.yaml)").
				Value(&global),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	path := filepath.Join(".asmcfg", "config.yaml")
	if global {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, ".asmcfg", "config.yaml")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	fmt.Printf("Config written to %s\n", path)
	return nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive integer")
	}
	return nil
}

func init() {
	RootCmd.AddCommand(initCmd)
}
