package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/pack"
	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/plugins"
)

func newPackCommand() *Command {
	cmd := &Command{
		Name:        "pack",
		Description: "Build a distributable archive from a plugin directory",
		Flags:       flag.NewFlagSet("pack", flag.ExitOnError),
		Run:         runPack,
	}

	cmd.Flags.String("dir", ".", "Plugin directory containing plugin.yaml")
	cmd.Flags.String("out", "", "Output path (defaults to <id>.tpkg)")

	return cmd
}

func runPack(args []string) error {
	flags := flag.NewFlagSet("pack", flag.ExitOnError)
	dir := flags.String("dir", ".", "Plugin directory containing plugin.yaml")
	out := flags.String("out", "", "Output path (defaults to <id>.tpkg)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	manifest, err := plugins.LoadManifestFromDir(*dir)
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	entryCode, err := os.ReadFile(filepath.Join(*dir, manifest.Entry))
	if err != nil {
		return fmt.Errorf("failed to read entry %s: %w", manifest.Entry, err)
	}

	assets, err := collectAssets(*dir, manifest.Entry)
	if err != nil {
		return fmt.Errorf("failed to collect assets: %w", err)
	}

	p, err := pack.New(manifest, entryCode, assets)
	if err != nil {
		return fmt.Errorf("failed to build package: %w", err)
	}

	dest := *out
	if dest == "" {
		dest = manifest.ID + pack.ArchiveExt
	}
	if err := p.Save(dest); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}

	fmt.Printf("Packed %s v%s -> %s\n", manifest.ID, manifest.Version, dest)
	return nil
}

// collectAssets gathers every file in the plugin directory except the
// manifest and the entry unit.
func collectAssets(dir, entry string) (map[string][]byte, error) {
	assets := make(map[string][]byte)

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == plugins.ManifestFileName || rel == entry {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		assets[rel] = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assets, nil
}
