package plugins

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// ManifestFileName is the manifest document inside every plugin directory.
const ManifestFileName = "plugin.yaml"

var (
	semverRegex = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)(-[a-zA-Z0-9.-]+)?(\+[a-zA-Z0-9.-]+)?$`)
	idRegex     = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)
)

// LoadManifest loads and parses a plugin manifest from a file
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	return &manifest, nil
}

// LoadManifestFromDir loads a plugin manifest from a directory (looks for plugin.yaml)
func LoadManifestFromDir(dir string) (*Manifest, error) {
	return LoadManifest(filepath.Join(dir, ManifestFileName))
}

// SaveManifest saves a plugin manifest to a file
func SaveManifest(manifest *Manifest, path string) error {
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// ValidateManifest checks a manifest structurally. A manifest with one or
// more errors must never be registered or executed.
func ValidateManifest(manifest *Manifest) []ValidationError {
	var errors []ValidationError

	// Required fields
	if manifest.ID == "" {
		errors = append(errors, ValidationError{
			Field:   "id",
			Message: "Plugin ID is required",
		})
	}

	if manifest.Name == "" {
		errors = append(errors, ValidationError{
			Field:   "name",
			Message: "Plugin name is required",
		})
	}

	if manifest.Version == "" {
		errors = append(errors, ValidationError{
			Field:   "version",
			Message: "Version is required",
		})
	}

	if manifest.Description == "" {
		errors = append(errors, ValidationError{
			Field:   "description",
			Message: "Description is required",
		})
	}

	if manifest.Author == "" {
		errors = append(errors, ValidationError{
			Field:   "author",
			Message: "Author is required",
		})
	}

	if manifest.Entry == "" {
		errors = append(errors, ValidationError{
			Field:   "entry",
			Message: "Entry point is required",
		})
	}

	// The ID ends up as a directory name, so it must be filesystem-safe.
	if manifest.ID != "" && !idRegex.MatchString(manifest.ID) {
		errors = append(errors, ValidationError{
			Field:   "id",
			Message: fmt.Sprintf("Plugin ID is not filesystem-safe: %s", manifest.ID),
		})
	}

	if manifest.Version != "" && !isValidSemver(manifest.Version) {
		errors = append(errors, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("Invalid semver format: %s", manifest.Version),
		})
	}

	if manifest.Entry != "" && (filepath.IsAbs(manifest.Entry) || filepath.Clean(manifest.Entry) != manifest.Entry) {
		errors = append(errors, ValidationError{
			Field:   "entry",
			Message: fmt.Sprintf("Entry point must be a clean relative path: %s", manifest.Entry),
		})
	}

	return errors
}

// isValidSemver checks if a version string follows semantic versioning
func isValidSemver(version string) bool {
	return semverRegex.MatchString(version)
}
