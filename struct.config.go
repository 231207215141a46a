package bamber19

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds one projection pipeline run.
type Config struct {
	PipelineID  string            `yaml:"pipeline_id"`
	Scenario    string            `yaml:"scenario"`
	ScenarioMap map[string]string `yaml:"scenario_map"` // scenario → branch core key

	NSamps  int   `yaml:"nsamps"` // ignored when temperature-driven
	Replace bool  `yaml:"replace"`
	Seed    int64 `yaml:"seed"`

	PyearStart int `yaml:"pyear_start"`
	PyearEnd   int `yaml:"pyear_end"`
	PyearStep  int `yaml:"pyear_step"`
	Baseyear   int `yaml:"baseyear"`

	CoreFile     string `yaml:"corefile"`
	ClimateFile  string `yaml:"climate_data_file"` // set ⇒ temperature-driven branch mixing
	LocationFile string `yaml:"location_file"`     // empty ⇒ skip localization
	FprintDir    string `yaml:"fingerprint_dir"`
	OutputDir    string `yaml:"output_dir"`

	ChunkSize int      `yaml:"chunksize"`
	Sheets    []string `yaml:"sheets"` // subset of EAIS WAIS AIS GIS to write
}

// DefaultConfig returns the stock run configuration.
func DefaultConfig() Config {
	return Config{
		PipelineID: "bamber19",
		Scenario:   "ssp585",
		ScenarioMap: map[string]string{
			"rcp85":          "corefileH",
			"rcp26":          "corefileL",
			"tlim2.0win0.25": "corefileL",
			"tlim5.0win0.25": "corefileH",
		},
		NSamps:     500,
		Replace:    true,
		Seed:       1234,
		PyearStart: 2020,
		PyearEnd:   2100,
		PyearStep:  10,
		Baseyear:   2000,
		CoreFile:   "SLRProjections190726core_SEJ_full.nc",
		FprintDir:  "grd_fingerprints_data/FPRINT",
		OutputDir:  "output",
		ChunkSize:  50,
		Sheets:     []string{"EAIS", "WAIS", "AIS", "GIS"},
	}
}

// LoadConfig reads a yaml run configuration over the defaults.
func LoadConfig(fp string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(fp)
	if err != nil {
		return cfg, fmt.Errorf("LoadConfig failed: %v", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("LoadConfig %s: %v", fp, err)
	}
	return cfg, nil
}

// TemperatureDriven reports whether branch mixing is steered by a
// surface-temperature ensemble rather than a fixed scenario mapping.
func (c *Config) TemperatureDriven() bool { return c.ClimateFile != "" }

// CoreKey maps the configured scenario to its branch core key.
func (c *Config) CoreKey() (string, error) {
	k, ok := c.ScenarioMap[c.Scenario]
	if !ok {
		return "", fmt.Errorf("scenario %s has no core mapping and no climate data file was given", c.Scenario)
	}
	return k, nil
}

// TargYears expands the projection year range, endpoints inclusive.
func (c *Config) TargYears() []int {
	var yy []int
	for y := c.PyearStart; y <= c.PyearEnd; y += c.PyearStep {
		yy = append(yy, y)
	}
	return yy
}

func (c *Config) Validate() error {
	if c.PipelineID == "" {
		return fmt.Errorf("config: pipeline_id required")
	}
	if c.CoreFile == "" {
		return fmt.Errorf("config: corefile required")
	}
	if c.Scenario == "" {
		return fmt.Errorf("config: scenario required")
	}
	if !c.TemperatureDriven() {
		if c.NSamps <= 0 {
			return fmt.Errorf("config: nsamps must be positive, got %d", c.NSamps)
		}
		if _, err := c.CoreKey(); err != nil {
			return fmt.Errorf("config: %v", err)
		}
	}
	if c.PyearStep <= 0 {
		return fmt.Errorf("config: pyear_step must be positive, got %d", c.PyearStep)
	}
	if c.PyearEnd < c.PyearStart {
		return fmt.Errorf("config: pyear_end %d before pyear_start %d", c.PyearEnd, c.PyearStart)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("config: chunksize must be positive, got %d", c.ChunkSize)
	}
	for _, s := range c.Sheets {
		if _, err := sheetIndex(s); err != nil {
			return fmt.Errorf("config: %v", err)
		}
	}
	if c.LocationFile != "" && c.FprintDir == "" {
		return fmt.Errorf("config: fingerprint_dir required when localizing")
	}
	return nil
}
