package config

const (
	SchemaVersion = 1

	DefaultGlobalKey  = "__bundleAssets"
	DefaultHelperName = "getBundleAsset"
	DefaultLogging    = "default"
	DefaultPlatform   = "node"
)

// DefaultFile returns a fully-populated v1 config document with no assets.
func DefaultFile() File {
	return File{
		Version: SchemaVersion,
		Build: BuildSection{
			Platform: DefaultPlatform,
		},
		Plugin: PluginSection{
			GlobalKey:  DefaultGlobalKey,
			HelperName: DefaultHelperName,
			Logging:    DefaultLogging,
		},
	}
}
