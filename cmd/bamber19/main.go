package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	bamber19 "github.com/fact-sealevel/bamber19-icesheets"
)

var (
	cfgFile string
	verbose bool

	pipelineID  string
	scenario    string
	nsamps      int
	seed        int64
	replace     bool
	baseyear    int
	pyearStart  int
	pyearEnd    int
	pyearStep   int
	corefile    string
	climateFile string
	locfile     string
	fprintDir   string
	outputDir   string
	chunksize   int

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bamber19",
	Short: "Bamber et al. 2019 structured-expert-judgement ice-sheet projections",
	Long: `bamber19 draws probabilistic sea-level projections for the Greenland
and Antarctic ice sheets from the Bamber et al. 2019 structured expert
judgement ensembles, optionally steering the high/low branch mix with a
surface-temperature ensemble, and localizes them with static sea-level
fingerprints.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Run the projection pipeline end to end",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig(cmd)
		if err != nil {
			return err
		}
		p, err := bamber19.NewPipeline(cfg, logger)
		if err != nil {
			return err
		}
		return p.Run()
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Summarize a cached projection cube",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig(cmd)
		if err != nil {
			return err
		}
		fp := filepath.Join(cfg.OutputDir, cfg.PipelineID+".projection.gob")
		prj, err := bamber19.LoadGobProjection(fp)
		if err != nil {
			return fmt.Errorf("no cached projection at %s: %v", fp, err)
		}
		prj.CheckAndPrint()
		return nil
	},
}

// buildConfig layers explicitly set flags over the config file over the
// defaults.
func buildConfig(cmd *cobra.Command) (bamber19.Config, error) {
	cfg := bamber19.DefaultConfig()
	if cfgFile != "" {
		var err error
		if cfg, err = bamber19.LoadConfig(cfgFile); err != nil {
			return cfg, err
		}
	}
	ff := cmd.Flags()
	if ff.Changed("pipeline-id") {
		cfg.PipelineID = pipelineID
	}
	if ff.Changed("scenario") {
		cfg.Scenario = scenario
	}
	if ff.Changed("nsamps") {
		cfg.NSamps = nsamps
	}
	if ff.Changed("seed") {
		cfg.Seed = seed
	}
	if ff.Changed("replace") {
		cfg.Replace = replace
	}
	if ff.Changed("baseyear") {
		cfg.Baseyear = baseyear
	}
	if ff.Changed("pyear-start") {
		cfg.PyearStart = pyearStart
	}
	if ff.Changed("pyear-end") {
		cfg.PyearEnd = pyearEnd
	}
	if ff.Changed("pyear-step") {
		cfg.PyearStep = pyearStep
	}
	if ff.Changed("corefile") {
		cfg.CoreFile = corefile
	}
	if ff.Changed("climate-data-file") {
		cfg.ClimateFile = climateFile
	}
	if ff.Changed("location-file") {
		cfg.LocationFile = locfile
	}
	if ff.Changed("fingerprint-dir") {
		cfg.FprintDir = fprintDir
	}
	if ff.Changed("output-dir") {
		cfg.OutputDir = outputDir
	}
	if ff.Changed("chunksize") {
		cfg.ChunkSize = chunksize
	}
	return cfg, nil
}

func addRunFlags(cmd *cobra.Command) {
	d := bamber19.DefaultConfig()
	cmd.Flags().StringVar(&pipelineID, "pipeline-id", d.PipelineID, "Unique identifier for this pipeline run")
	cmd.Flags().StringVar(&scenario, "scenario", d.Scenario, "Emissions scenario of interest")
	cmd.Flags().IntVar(&nsamps, "nsamps", d.NSamps, "Number of samples to draw (single-branch runs)")
	cmd.Flags().Int64Var(&seed, "seed", d.Seed, "Seed for the random number generator")
	cmd.Flags().BoolVar(&replace, "replace", d.Replace, "Draw member indices with replacement")
	cmd.Flags().IntVar(&baseyear, "baseyear", d.Baseyear, "Year to which projections are referenced")
	cmd.Flags().IntVar(&pyearStart, "pyear-start", d.PyearStart, "Projection year start")
	cmd.Flags().IntVar(&pyearEnd, "pyear-end", d.PyearEnd, "Projection year end")
	cmd.Flags().IntVar(&pyearStep, "pyear-step", d.PyearStep, "Projection year step")
	cmd.Flags().StringVar(&corefile, "corefile", d.CoreFile, "NetCDF file holding the SEJ branch cores")
	cmd.Flags().StringVar(&climateFile, "climate-data-file", d.ClimateFile, "NetCDF file with surface temperatures; set to mix branches by temperature")
	cmd.Flags().StringVar(&locfile, "location-file", d.LocationFile, "Location list (name id lat lon) for localization; empty to skip")
	cmd.Flags().StringVar(&fprintDir, "fingerprint-dir", d.FprintDir, "Directory holding fprint_gis.nc, fprint_wais.nc and fprint_eais.nc")
	cmd.Flags().StringVar(&outputDir, "output-dir", d.OutputDir, "Directory for projection outputs")
	cmd.Flags().IntVar(&chunksize, "chunksize", d.ChunkSize, "Number of locations to process at a time")
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Run configuration yaml")

	addRunFlags(projectCmd)
	addRunFlags(checkCmd)

	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
