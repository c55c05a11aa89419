package cmd

import (
	"github.com/Tankmaster48/ndnd-catchunks/std/utils/toolutils"
)

// fileConfig mirrors getCmd's flags for the optional --config YAML file
// (spec.md §6's CLI surface, supplemented per this tool's ambient config
// layer). Any field left unset in the file keeps its command-line value.
type fileConfig struct {
	Fresh               *bool    `yaml:"fresh"`
	LifetimeMs          *int     `yaml:"lifetime"`
	Retries             *int     `yaml:"retries"`
	PipelineType        *string  `yaml:"pipeline_type"`
	NoVersionDiscovery  *bool    `yaml:"no_version_discovery"`
	NamingConvention    *string  `yaml:"naming_convention"`
	PipelineSize        *int     `yaml:"pipeline_size"`
	IgnoreMarks         *bool    `yaml:"ignore_marks"`
	DisableCwa          *bool    `yaml:"disable_cwa"`
	InitCwnd            *float64 `yaml:"init_cwnd"`
	InitSsthresh        *float64 `yaml:"init_ssthresh"`
	AimdStep            *float64 `yaml:"aimd_step"`
	AimdBeta            *float64 `yaml:"aimd_beta"`
	CubicBeta           *float64 `yaml:"cubic_beta"`
	CubicC              *float64 `yaml:"cubic_c"`
	FastConv            *bool    `yaml:"fast_conv"`
	Verbose             *bool    `yaml:"verbose"`
	Quiet               *bool    `yaml:"quiet"`
	Transport           *string  `yaml:"transport"`
}

// loadConfigOverrides reads path and applies any set fields onto g.
func loadConfigOverrides(path string, g *getCmd) error {
	var cfg fileConfig
	if err := toolutils.ReadYaml(&cfg, path); err != nil {
		return err
	}

	if cfg.Fresh != nil {
		g.opts.MustBeFresh = *cfg.Fresh
	}
	if cfg.LifetimeMs != nil {
		g.lifetimeMs = *cfg.LifetimeMs
	}
	if cfg.Retries != nil {
		g.opts.MaxRetriesOnTimeoutOrNack = *cfg.Retries
	}
	if cfg.PipelineType != nil {
		g.pipelineTypeStr = *cfg.PipelineType
	}
	if cfg.NoVersionDiscovery != nil {
		g.opts.DisableVersionDiscovery = *cfg.NoVersionDiscovery
	}
	if cfg.NamingConvention != nil {
		g.conventionStr = *cfg.NamingConvention
	}
	if cfg.PipelineSize != nil {
		g.opts.PipelineSize = *cfg.PipelineSize
	}
	if cfg.IgnoreMarks != nil {
		g.opts.IgnoreMarks = *cfg.IgnoreMarks
	}
	if cfg.DisableCwa != nil {
		g.opts.DisableCwa = *cfg.DisableCwa
	}
	if cfg.InitCwnd != nil {
		g.opts.InitCwnd = *cfg.InitCwnd
	}
	if cfg.InitSsthresh != nil {
		g.opts.InitSsthresh = *cfg.InitSsthresh
	}
	if cfg.AimdStep != nil {
		g.opts.AimdStep = *cfg.AimdStep
	}
	if cfg.AimdBeta != nil {
		g.opts.AimdBeta = *cfg.AimdBeta
	}
	if cfg.CubicBeta != nil {
		g.opts.CubicBeta = *cfg.CubicBeta
	}
	if cfg.CubicC != nil {
		g.opts.CubicC = *cfg.CubicC
	}
	if cfg.FastConv != nil {
		g.opts.FastConv = *cfg.FastConv
	}
	if cfg.Verbose != nil {
		g.verbose = *cfg.Verbose
	}
	if cfg.Quiet != nil {
		g.quiet = *cfg.Quiet
	}
	if cfg.Transport != nil {
		g.transport = *cfg.Transport
	}
	return nil
}
