package config

import "flag"

// Flags holds command-line overrides registered on a FlagSet.
type Flags struct {
	Config   string
	Debug    bool
	CellSize float64
	Format   string
	OutDir   string
	Workers  int
}

// RegisterFlags registers the shared flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.Float64Var(&f.CellSize, "cell", 0, "Cell size in world units")
	fs.StringVar(&f.Format, "format", "", "Output format (obj, json)")
	fs.StringVar(&f.OutDir, "out", "", "Output directory")
	fs.IntVar(&f.Workers, "workers", 0, "Batch worker count")
	return f
}

// apply applies flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.CellSize > 0 {
		cfg.Mesh.CellSize = float32(f.CellSize)
	}
	if f.Format != "" {
		cfg.Output.Format = f.Format
	}
	if f.OutDir != "" {
		cfg.Output.Dir = f.OutDir
	}
	if f.Workers > 0 {
		cfg.Batch.Workers = f.Workers
	}
}
