package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"assetpack/internal/buildlog"
	"assetpack/internal/bundle"
	"assetpack/internal/config"
	"assetpack/internal/host"
	"assetpack/internal/keyset"
	"assetpack/internal/manifest"
	"assetpack/internal/resolver"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:           "assetpack",
		Short:         "Bundle static assets into build output with a runtime lookup table",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to assetpack.toml")
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")

	cmd.AddCommand(newBuildCmd(&configPath, &jsonOutput))
	cmd.AddCommand(newResolveCmd(&jsonOutput))
	cmd.AddCommand(newKeysCmd(&jsonOutput))
	cmd.AddCommand(newInspectCmd(&jsonOutput))
	cmd.AddCommand(newVersionCmd(&jsonOutput))

	return cmd
}

func newBuildCmd(configPath *string, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Run the asset pipeline for the configured build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			mode, err := buildlog.ParseMode(cfg.Plugin.Logging)
			if err != nil {
				return err
			}
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			plugin := &bundle.Plugin{
				Host:    host.Local{WorkDir: wd},
				Log:     buildlog.New(mode),
				WorkDir: wd,
				Build: bundle.BuildConfig{
					Platform:    cfg.Build.Platform,
					OutDir:      cfg.Build.OutDir,
					OutFile:     cfg.Build.OutFile,
					Compile:     cfg.Build.Compile,
					Entrypoints: cfg.Build.Entrypoints,
				},
				Options: bundle.Options{
					Assets:        assetSpecs(cfg.Assets),
					GlobalKey:     cfg.Plugin.GlobalKey,
					HelperName:    cfg.Plugin.HelperName,
					ExtractionDir: cfg.Plugin.ExtractionDir,
				},
			}
			res, err := plugin.Run(cmd.Context())
			if err != nil {
				return err
			}
			if *jsonOutput {
				return print(true, res, "")
			}
			fmt.Printf("bundled %d assets (%s mode) into %s\n", len(res.Assets), res.Mode, res.OutputRoot)
			for _, dest := range res.Injected {
				fmt.Printf("- injected %s\n", dest)
			}
			return nil
		},
	}
}

func newResolveCmd(jsonOutput *bool) *cobra.Command {
	var dirs []string
	cmd := &cobra.Command{
		Use:   "resolve <specifier>",
		Short: "Resolve a specifier and show the strategy diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			svc := &resolver.Service{
				FS:      host.Local{WorkDir: wd},
				Modules: localModules{wd},
				WorkDir: wd,
			}
			path, err := svc.Resolve(cmd.Context(), args[0], dirs)
			if err != nil {
				var nf *resolver.NotFoundError
				if *jsonOutput && errors.As(err, &nf) {
					return print(true, map[string]any{
						"specifier": nf.Specifier,
						"attempts":  nf.Attempts,
						"errors":    nf.Causes,
					}, "")
				}
				return err
			}
			return print(*jsonOutput, map[string]string{
				"specifier": args[0],
				"kind":      resolver.Classify(args[0]).String(),
				"path":      path,
			}, path)
		},
	}
	cmd.Flags().StringArrayVar(&dirs, "dir", nil, "candidate base directory (repeatable)")
	return cmd
}

func newKeysCmd(jsonOutput *bool) *cobra.Command {
	var targetName string
	var runtimeKeys []string
	var outputRoot string
	cmd := &cobra.Command{
		Use:   "keys <specifier>",
		Short: "Show the lookup key set an asset would register",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			svc := &resolver.Service{
				FS:      host.Local{WorkDir: wd},
				Modules: localModules{wd},
				WorkDir: wd,
			}
			src, err := svc.Resolve(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			rel := keyset.RelativePath(args[0], targetName, src)
			outPath := ""
			if outputRoot != "" {
				outPath = filepath.Join(outputRoot, filepath.FromSlash(rel))
			}
			keys := keyset.Expand(keyset.Input{
				Specifier:   args[0],
				SourcePath:  src,
				OutputPath:  outPath,
				RuntimeKeys: runtimeKeys,
			})
			if *jsonOutput {
				return print(true, map[string]any{"relativePath": rel, "keys": keys}, "")
			}
			fmt.Println(rel)
			for _, k := range keys {
				fmt.Printf("- %s\n", k)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&targetName, "target", "", "emitted relative path")
	cmd.Flags().StringArrayVar(&runtimeKeys, "key", nil, "runtime alias (repeatable)")
	cmd.Flags().StringVar(&outputRoot, "outdir", "", "output root for output-path key forms")
	return cmd
}

func newInspectCmd(jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <outdir>",
		Short: "Read back the manifest of a built output directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := manifest.LoadDocument(args[0])
			if err != nil {
				return err
			}
			if *jsonOutput {
				return print(true, doc, "")
			}
			fmt.Printf("fingerprint: %s\n", doc.Fingerprint)
			for _, a := range doc.Assets {
				embedded := ""
				if a.Data != "" {
					embedded = " (embedded)"
				}
				fmt.Printf("- %s -> %s%s keys=%d\n", a.Specifier, a.RelativePath, embedded, len(a.Keys))
			}
			return nil
		},
	}
}

func assetSpecs(entries []config.AssetEntry) []bundle.AssetSpec {
	specs := make([]bundle.AssetSpec, 0, len(entries))
	for _, e := range entries {
		specs = append(specs, bundle.AssetSpec{
			Specifier:   e.Specifier,
			TargetName:  e.TargetName,
			RuntimeKeys: e.RuntimeKeys,
		})
	}
	return specs
}

type localModules struct {
	workDir string
}

func (m localModules) Resolve(ctx context.Context, specifier, parentDir string) (string, error) {
	return host.Local{WorkDir: m.workDir}.ResolveModule(ctx, specifier, parentDir)
}

func print(jsonOutput bool, payload any, message string) error {
	if jsonOutput {
		blob, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(blob))
		return nil
	}
	if message != "" {
		fmt.Println(message)
	}
	return nil
}
