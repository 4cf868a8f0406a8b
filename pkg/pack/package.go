package pack

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/plugins"
)

const (
	manifestEntry  = "plugin.yaml"
	checksumsEntry = "checksums.yaml"

	// Extension for plugin package archives.
	ArchiveExt = ".tpkg"
)

// IntegrityError reports a checksum mismatch or a missing/extra file in a
// loaded package. A package that fails verification must never be trusted
// or executed.
type IntegrityError struct {
	Path   string
	Reason string
}

func (e *IntegrityError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("package integrity violation: %s", e.Reason)
	}
	return fmt.Sprintf("package integrity violation in %s: %s", e.Path, e.Reason)
}

// checksumRecord is the checksum document embedded in every archive.
type checksumRecord struct {
	Files   map[string]string `yaml:"files"`
	Archive string            `yaml:"archive"`
}

// Package is a manifest plus the plugin's files and their checksums. It is
// owned exclusively by whichever component currently holds it and is
// discarded after extraction.
type Package struct {
	Manifest  *plugins.Manifest
	Files     map[string][]byte
	checksums checksumRecord

	// manifestRaw holds the serialized manifest exactly as packaged. The
	// checksum record covers these bytes, and Save/Extract write them
	// verbatim, so the manifest that granted capabilities is the manifest
	// that was verified.
	manifestRaw []byte
}

// New builds a package from a manifest, the entry-point code, and any
// assets, computing one checksum per file and one over the whole set.
// The manifest itself is part of the checksummed set.
func New(manifest *plugins.Manifest, entryCode []byte, assets map[string][]byte) (*Package, error) {
	if errs := plugins.ValidateManifest(manifest); len(errs) > 0 {
		return nil, fmt.Errorf("invalid manifest: %v", errs)
	}

	manifestRaw, err := yaml.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}

	files := make(map[string][]byte, len(assets)+1)
	files[manifest.Entry] = append([]byte(nil), entryCode...)
	for path, content := range assets {
		clean := filepath.Clean(path)
		if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
			return nil, fmt.Errorf("asset path escapes package: %s", path)
		}
		if clean == manifestEntry || clean == checksumsEntry {
			return nil, fmt.Errorf("asset path %s is reserved", clean)
		}
		files[clean] = append([]byte(nil), content...)
	}

	p := &Package{Manifest: manifest, Files: files, manifestRaw: manifestRaw}
	p.checksums = computeChecksums(p.checksumInput())
	return p, nil
}

// checksumInput is the byte set the checksum record covers: every packaged
// file plus the serialized manifest under its reserved entry name.
func (p *Package) checksumInput() map[string][]byte {
	input := make(map[string][]byte, len(p.Files)+1)
	for path, content := range p.Files {
		input[path] = content
	}
	input[manifestEntry] = p.manifestRaw
	return input
}

// Save serializes the manifest, files, and checksum record into one
// compressed archive at path.
func (p *Package) Save(path string) error {
	checksumData, err := yaml.Marshal(p.checksums)
	if err != nil {
		return fmt.Errorf("failed to marshal checksums: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	entries := map[string][]byte{
		manifestEntry:  p.manifestRaw,
		checksumsEntry: checksumData,
	}
	for path, content := range p.Files {
		entries[path] = content
	}

	// Stable entry order keeps archives reproducible.
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		content := entries[name]
		hdr := &tar.Header{
			Name: name,
			Mode: 0644,
			Size: int64(len(content)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("failed to write archive header for %s: %w", name, err)
		}
		if _, err := tw.Write(content); err != nil {
			return fmt.Errorf("failed to write archive entry %s: %w", name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finalize compression: %w", err)
	}

	return nil
}

// Load deserializes an archive without trusting its content. Callers must
// Verify before executing or extracting anything from the package.
func Load(path string) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read compression: %w", err)
	}
	defer gz.Close()

	p := &Package{Files: make(map[string][]byte)}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read archive: %w", err)
		}

		name := filepath.Clean(hdr.Name)
		if filepath.IsAbs(name) || strings.HasPrefix(name, "..") {
			return nil, &IntegrityError{Path: hdr.Name, Reason: "entry path escapes archive"}
		}

		content, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("failed to read archive entry %s: %w", name, err)
		}

		switch name {
		case manifestEntry:
			var manifest plugins.Manifest
			if err := yaml.Unmarshal(content, &manifest); err != nil {
				return nil, fmt.Errorf("failed to parse packaged manifest: %w", err)
			}
			p.Manifest = &manifest
			p.manifestRaw = content
		case checksumsEntry:
			if err := yaml.Unmarshal(content, &p.checksums); err != nil {
				return nil, fmt.Errorf("failed to parse checksum record: %w", err)
			}
		default:
			p.Files[name] = content
		}
	}

	if p.Manifest == nil {
		return nil, &IntegrityError{Reason: "archive has no manifest"}
	}
	if p.checksums.Files == nil {
		return nil, &IntegrityError{Reason: "archive has no checksum record"}
	}

	return p, nil
}

// Verify recomputes every checksum and compares against the packaged
// record. Any single-byte mismatch in any file, the manifest included, or
// a missing or extra file, fails verification.
func (p *Package) Verify() error {
	input := p.checksumInput()

	for path := range p.checksums.Files {
		if _, ok := input[path]; !ok {
			return &IntegrityError{Path: path, Reason: "file missing from archive"}
		}
	}
	for path := range input {
		if _, ok := p.checksums.Files[path]; !ok {
			return &IntegrityError{Path: path, Reason: "file not covered by checksum record"}
		}
	}

	actual := computeChecksums(input)
	for path, want := range p.checksums.Files {
		if actual.Files[path] != want {
			return &IntegrityError{Path: path, Reason: "checksum mismatch"}
		}
	}
	if actual.Archive != p.checksums.Archive {
		return &IntegrityError{Reason: "archive checksum mismatch"}
	}

	return nil
}

// Extract writes the package's files into dir. The package must have been
// verified first; Extract re-runs Verify as a last line of defense.
func (p *Package) Extract(dir string) error {
	if err := p.Verify(); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create extraction directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, manifestEntry), p.manifestRaw, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	for path, content := range p.Files {
		dest := filepath.Join(dir, path)
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		if err := os.WriteFile(dest, content, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	return nil
}

// computeChecksums hashes each file and the whole file set. The archive
// checksum covers paths and contents in sorted path order.
func computeChecksums(files map[string][]byte) checksumRecord {
	record := checksumRecord{Files: make(map[string]string, len(files))}

	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	whole := sha256.New()
	for _, path := range paths {
		sum := sha256.Sum256(files[path])
		record.Files[path] = hex.EncodeToString(sum[:])

		whole.Write([]byte(path))
		whole.Write([]byte{0})
		whole.Write(files[path])
	}
	record.Archive = hex.EncodeToString(whole.Sum(nil))

	return record
}
