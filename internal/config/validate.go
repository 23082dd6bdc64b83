package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"assetpack/internal/buildlog"
)

// helperDisabledValues turn the runtime helper off entirely.
var helperDisabledValues = map[string]struct{}{
	"none":  {},
	"off":   {},
	"false": {},
}

// Normalize fills defaults and canonicalizes the helper-disabled spelling
// to an empty name.
func Normalize(f File) File {
	if f.Version == 0 {
		f.Version = SchemaVersion
	}
	if f.Build.Platform == "" {
		f.Build.Platform = DefaultPlatform
	}
	if f.Plugin.GlobalKey == "" {
		f.Plugin.GlobalKey = DefaultGlobalKey
	}
	if f.Plugin.Logging == "" {
		f.Plugin.Logging = DefaultLogging
	}
	if f.Plugin.HelperName == "" {
		f.Plugin.HelperName = DefaultHelperName
	} else if _, ok := helperDisabledValues[strings.ToLower(f.Plugin.HelperName)]; ok {
		f.Plugin.HelperName = ""
	}
	return f
}

func Validate(f File) error {
	if f.Version != SchemaVersion {
		return fmt.Errorf("CFG_VERSION: unsupported config version %d", f.Version)
	}
	if _, err := buildlog.ParseMode(f.Plugin.Logging); err != nil {
		return err
	}
	if d := f.Plugin.ExtractionDir; d != "" && !filepath.IsAbs(d) {
		return fmt.Errorf("CFG_EXTRACTION_DIR: extraction dir %q must be absolute", d)
	}
	if len(f.Assets) == 0 {
		return fmt.Errorf("CFG_ASSETS_EMPTY: at least one asset is required")
	}
	for i, a := range f.Assets {
		if strings.TrimSpace(a.Specifier) == "" {
			return fmt.Errorf("CFG_ASSET_SPECIFIER: asset %d has an empty specifier", i)
		}
	}
	return nil
}
