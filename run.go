package bamber19

import (
	"fmt"
	"math/rand"
	"path/filepath"

	"github.com/maseology/mmio"
	mrg63k3a "github.com/maseology/pnrg/MRG63k3a"
	"go.uber.org/zap"

	"github.com/fact-sealevel/bamber19-icesheets/climate"
	"github.com/fact-sealevel/bamber19-icesheets/fprint"
	"github.com/fact-sealevel/bamber19-icesheets/sej"
	"github.com/fact-sealevel/bamber19-icesheets/sites"
)

// Pipeline runs the Bamber et al. 2019 ice-sheet projection workflow:
// extract, select, resample, then localize.
type Pipeline struct {
	cfg Config
	lg  *zap.Logger
}

func NewPipeline(cfg Config, lg *zap.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, lg: lg}, nil
}

// Project builds the global sample cube. The generator is seeded once
// and consumed in a fixed order (branch uniforms, then index draws), so
// a configuration always yields the same cube.
func (p *Pipeline) Project() (*Projection, error) {
	cfg := &p.cfg
	tt := mmio.NewTimer()
	rng := rand.New(mrg63k3a.New())
	rng.Seed(cfg.Seed)

	tbl, err := sej.Load(cfg.CoreFile)
	if err != nil {
		return nil, fmt.Errorf("Pipeline.Project: %v", err)
	}
	tt.Lap("core table loaded")

	targ := cfg.TargYears()
	var prj *Projection
	if cfg.TemperatureDriven() {
		lo, err := tbl.Extract("corefileL", targ, cfg.Baseyear)
		if err != nil {
			return nil, fmt.Errorf("Pipeline.Project: %v", err)
		}
		hi, err := tbl.Extract("corefileH", targ, cfg.Baseyear)
		if err != nil {
			return nil, fmt.Errorf("Pipeline.Project: %v", err)
		}
		sat, err := climate.GetSAT(cfg.ClimateFile, cfg.Scenario)
		if err != nil {
			return nil, fmt.Errorf("Pipeline.Project: %v", err)
		}
		// the climate ensemble size fixes the sample count here
		mask := SelectBranch(sat, rng)
		p.lg.Info("branch selection complete",
			zap.String("scenario", cfg.Scenario),
			zap.Int("nens", sat.Nens),
			zap.Int("high", countTrue(mask)))
		prj, err = ResampleBranches(lo, hi, mask, cfg.Scenario, cfg.Replace, rng)
		if err != nil {
			return nil, fmt.Errorf("Pipeline.Project: %v", err)
		}
	} else {
		key, err := cfg.CoreKey()
		if err != nil {
			return nil, fmt.Errorf("Pipeline.Project: %v", err)
		}
		ens, err := tbl.Extract(key, targ, cfg.Baseyear)
		if err != nil {
			return nil, fmt.Errorf("Pipeline.Project: %v", err)
		}
		prj, err = Resample(ens, cfg.Scenario, cfg.NSamps, cfg.Replace, rng)
		if err != nil {
			return nil, fmt.Errorf("Pipeline.Project: %v", err)
		}
		p.lg.Info("single-branch resampling complete", zap.String("core", key))
	}
	tt.Lap("projection complete")
	p.lg.Info("global cube built", zap.Int("nsamps", prj.NSamps()), zap.Int("years", len(prj.Years)))
	return prj, nil
}

// Localize reads the configured sites, resolves each sheet's fingerprint
// at them and scales the global cube out to the sites.
func (p *Pipeline) Localize(prj *Projection) (*LocalSet, error) {
	cfg := &p.cfg
	ss, err := sites.ReadList(cfg.LocationFile)
	if err != nil {
		return nil, fmt.Errorf("Pipeline.Localize: %v", err)
	}
	gis, err := fprint.Assign(filepath.Join(cfg.FprintDir, "fprint_gis.nc"), ss)
	if err != nil {
		return nil, fmt.Errorf("Pipeline.Localize: %v", err)
	}
	wais, err := fprint.Assign(filepath.Join(cfg.FprintDir, "fprint_wais.nc"), ss)
	if err != nil {
		return nil, fmt.Errorf("Pipeline.Localize: %v", err)
	}
	eais, err := fprint.Assign(filepath.Join(cfg.FprintDir, "fprint_eais.nc"), ss)
	if err != nil {
		return nil, fmt.Errorf("Pipeline.Localize: %v", err)
	}
	lcl, err := Localize(prj, ss, gis, wais, eais, cfg.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("Pipeline.Localize: %v", err)
	}
	return lcl, nil
}

// Run executes the pipeline end to end, reusing a cached projection when
// one matching the configuration exists beside the outputs.
func (p *Pipeline) Run() error {
	cfg := &p.cfg
	mmio.MakeDir(cfg.OutputDir)
	gobfp := filepath.Join(cfg.OutputDir, cfg.PipelineID+".projection.gob")

	var prj *Projection
	if _, ok := mmio.FileExists(gobfp); ok {
		if cached, err := LoadGobProjection(gobfp); err == nil && cached.Matches(cfg) {
			p.lg.Info("cached projection loaded", zap.String("path", gobfp))
			prj = cached
		} else {
			p.lg.Warn("cached projection stale, rebuilding", zap.String("path", gobfp))
		}
	}
	if prj == nil {
		var err error
		if prj, err = p.Project(); err != nil {
			return err
		}
		if err := prj.SaveGob(gobfp); err != nil {
			return err
		}
	}

	if err := prj.WriteGlobal(cfg.OutputDir, cfg.PipelineID, cfg.Sheets); err != nil {
		return err
	}
	if err := prj.WriteSampleIndices(filepath.Join(cfg.OutputDir, cfg.PipelineID+".sampleindices.csv")); err != nil {
		return err
	}
	prj.CheckAndPrint()
	p.lg.Info("global outputs written", zap.String("dir", cfg.OutputDir))

	if cfg.LocationFile == "" {
		return nil
	}
	lcl, err := p.Localize(prj)
	if err != nil {
		return err
	}
	if err := lcl.WriteLocal(cfg.OutputDir, cfg.PipelineID, cfg.Sheets); err != nil {
		return err
	}
	lcl.CheckAndPrint()
	p.lg.Info("localized outputs written", zap.String("dir", cfg.OutputDir), zap.Int("sites", len(lcl.Sites)))
	return nil
}
