package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jwebster45206/rando-engine/internal/config"
	"github.com/jwebster45206/rando-engine/internal/logger"
)

// --- Global Command Variables ---
var (
	cfg *config.Config
	log *slog.Logger

	dataDir      string
	presetsFile  string
	logLevel     string
	tierName     string
	mapName      string
	seedFlag     uint64
	outPath      string
	attemptWork  int
	mapAttempts  int
	itemAttempts int
	showSpoiler  bool
	spoilerWidth int
	copySummary  bool
	startName    string
	apiURL       string
	waitTimeout  int

	rootCmd = &cobra.Command{
		Use:   "rando",
		Short: "Generate and inspect logic-aware item randomizations",
		Long: `rando places items on a logic graph so that every seed can be finished
at the chosen difficulty tier. It works on local logic files, or talks to a
running API for queued generation.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}

	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate a seed from local logic files",
		Args:  cobra.NoArgs,
		RunE:  runGenerate,
	}

	checkStartCmd = &cobra.Command{
		Use:   "check-start",
		Short: "Report which start locations of a map are valid hubs",
		Args:  cobra.NoArgs,
		RunE:  runCheckStart,
	}

	inspectCmd = &cobra.Command{
		Use:   "inspect",
		Short: "Explore reachability with a hand-edited inventory",
		Args:  cobra.NoArgs,
		RunE:  runInspect,
	}

	submitCmd = &cobra.Command{
		Use:   "submit",
		Short: "Queue a seed on a running API and wait for the result",
		Args:  cobra.NoArgs,
		RunE:  runSubmit,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory holding maps/ and presets.yaml (default $DATA_DIR or ./data)")
	rootCmd.PersistentFlags().StringVar(&presetsFile, "presets", "", "Presets file (default <data-dir>/presets.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (default $LOG_LEVEL or info)")
	rootCmd.PersistentFlags().StringVar(&tierName, "tier", "", "Hardest difficulty tier (default $TIER or Default)")

	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVar(&mapName, "map", "", "Only use this map (name without .json)")
	generateCmd.Flags().Uint64Var(&seedFlag, "seed", 0, "Root seed (random when not set)")
	generateCmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the randomization as JSON to this file, or - for stdout")
	generateCmd.Flags().IntVar(&attemptWork, "workers", 0, "Map attempts run at once (default $ATTEMPT_WORKERS)")
	generateCmd.Flags().IntVar(&mapAttempts, "map-attempts", 0, "Map and door layouts to try (default $MAX_MAP_ATTEMPTS)")
	generateCmd.Flags().IntVar(&itemAttempts, "item-attempts", 0, "Item seeds per layout (default $MAX_ITEM_ATTEMPTS)")
	generateCmd.Flags().BoolVar(&showSpoiler, "spoiler", false, "Print the full spoiler instead of the summary")
	generateCmd.Flags().IntVar(&spoilerWidth, "width", 80, "Wrap width of the printed spoiler")
	generateCmd.Flags().BoolVar(&copySummary, "copy", false, "Copy the summary to the clipboard")

	rootCmd.AddCommand(checkStartCmd)
	checkStartCmd.Flags().StringVar(&mapName, "map", "", "Map to check (name without .json)")
	_ = checkStartCmd.MarkFlagRequired("map")

	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&mapName, "map", "", "Map to inspect (name without .json)")
	inspectCmd.Flags().StringVar(&startName, "start", "", "Start location (default the first one)")
	_ = inspectCmd.MarkFlagRequired("map")

	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().StringVar(&apiURL, "api", "http://localhost:8080", "Base URL of the API")
	submitCmd.Flags().Uint64Var(&seedFlag, "seed", 0, "Root seed (chosen by the API when not set)")
	submitCmd.Flags().IntVar(&waitTimeout, "timeout", 60, "Seconds to wait for the seed")
	submitCmd.Flags().IntVar(&spoilerWidth, "width", 80, "Wrap width of the printed spoiler")
}

// loadConfig reads the environment the way the services do, then applies
// any flags the user set.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("presets") {
		cfg.PresetsFile = presetsFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = config.ParseLogLevel(logLevel)
	}
	if flags.Changed("tier") {
		cfg.Tier = tierName
	}
	if flags.Changed("workers") {
		cfg.AttemptWorkers = attemptWork
	}
	if flags.Changed("map-attempts") {
		cfg.MaxMapAttempts = mapAttempts
	}
	if flags.Changed("item-attempts") {
		cfg.MaxItemAttempts = itemAttempts
	}

	// Logs go to stderr so JSON output on stdout stays clean.
	log = logger.New(cmd.ErrOrStderr(), cfg)
	return nil
}
