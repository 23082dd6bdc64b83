package config

// File is the frozen v1 schema of assetpack.toml.
type File struct {
	Version int          `toml:"version"`
	Build   BuildSection `toml:"build"`
	Plugin  PluginSection `toml:"plugin"`
	Assets  []AssetEntry `toml:"assets"`
}

// BuildSection mirrors the host build tool's configuration.
type BuildSection struct {
	Platform    string   `toml:"platform"`
	OutDir      string   `toml:"outdir,omitempty"`
	OutFile     string   `toml:"outfile,omitempty"`
	Compile     bool     `toml:"compile"`
	Entrypoints []string `toml:"entrypoints,omitempty"`
}

// PluginSection is the plugin's own surface.
type PluginSection struct {
	GlobalKey     string `toml:"global_key"`
	HelperName    string `toml:"helper_name"`
	Logging       string `toml:"logging"`
	ExtractionDir string `toml:"extraction_dir,omitempty"`
}

// AssetEntry declares one asset to bundle.
type AssetEntry struct {
	Specifier   string   `toml:"specifier"`
	TargetName  string   `toml:"target_name,omitempty"`
	RuntimeKeys []string `toml:"runtime_keys,omitempty"`
}
