package pack

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/plugins"
)

func testManifest() *plugins.Manifest {
	return &plugins.Manifest{
		ID:          "fan-curves",
		Name:        "Fan Curves",
		Version:     "0.9.0",
		Description: "Custom fan curve profiles",
		Author:      "author",
		Entry:       "main.py",
	}
}

func buildTestPackage(t *testing.T) *Package {
	t.Helper()
	p, err := New(testManifest(), []byte("print('fans')\n"), map[string][]byte{
		"assets/icon.svg":     []byte("<svg/>"),
		"assets/profiles.ini": []byte("[quiet]\nspeed=30\n"),
	})
	require.NoError(t, err)
	return p
}

// TestRoundTrip tests that save, load, verify always succeeds on an
// untampered archive
func TestRoundTrip(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "fan-curves-0.9.0"+ArchiveExt)

	original := buildTestPackage(t)
	require.NoError(t, original.Save(archive))

	loaded, err := Load(archive)
	require.NoError(t, err)
	require.NoError(t, loaded.Verify())

	assert.Equal(t, "fan-curves", loaded.Manifest.ID)
	assert.Equal(t, original.Files["main.py"], loaded.Files["main.py"])
	assert.Equal(t, original.Files["assets/icon.svg"], loaded.Files["assets/icon.svg"])
	assert.Len(t, loaded.Files, 3)
}

// TestVerify_SingleByteFlip tests that flipping any one byte in any
// packaged file fails verification
func TestVerify_SingleByteFlip(t *testing.T) {
	p := buildTestPackage(t)

	for path := range p.Files {
		t.Run(path, func(t *testing.T) {
			archive := filepath.Join(t.TempDir(), "p"+ArchiveExt)
			require.NoError(t, p.Save(archive))

			loaded, err := Load(archive)
			require.NoError(t, err)

			loaded.Files[path][0] ^= 0x01

			err = loaded.Verify()
			require.Error(t, err)

			var integrity *IntegrityError
			require.True(t, errors.As(err, &integrity))
			assert.Equal(t, path, integrity.Path)
		})
	}
}

// TestVerify_ManifestTamper tests that rewriting only the packaged
// manifest, with every other file and the checksum record intact, fails
// verification instead of granting the rewritten capability set
func TestVerify_ManifestTamper(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "p"+ArchiveExt)
	require.NoError(t, buildTestPackage(t).Save(archive))

	escalated := testManifest()
	escalated.Capabilities = []string{"network", "subprocess", "sudo"}
	raw, err := yaml.Marshal(escalated)
	require.NoError(t, err)

	tampered := filepath.Join(dir, "tampered"+ArchiveExt)
	rewriteEntry(t, archive, tampered, "plugin.yaml", raw)

	loaded, err := Load(tampered)
	require.NoError(t, err)
	require.Equal(t, []string{"network", "subprocess", "sudo"}, loaded.Manifest.Capabilities)

	err = loaded.Verify()
	require.Error(t, err)

	var integrity *IntegrityError
	require.True(t, errors.As(err, &integrity))
	assert.Equal(t, "plugin.yaml", integrity.Path)
}

// rewriteEntry copies an archive, replacing the content of one entry.
func rewriteEntry(t *testing.T, src, dst, name string, content []byte) {
	t.Helper()

	in, err := os.Open(src)
	require.NoError(t, err)
	defer in.Close()
	gzr, err := gzip.NewReader(in)
	require.NoError(t, err)
	tr := tar.NewReader(gzr)

	out, err := os.Create(dst)
	require.NoError(t, err)
	defer out.Close()
	gzw := gzip.NewWriter(out)
	tw := tar.NewWriter(gzw)

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		if hdr.Name == name {
			data = content
		}

		require.NoError(t, tw.WriteHeader(&tar.Header{Name: hdr.Name, Mode: 0644, Size: int64(len(data))}))
		_, err = tw.Write(data)
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gzw.Close())
}

// TestVerify_MissingAndExtraFiles tests file-set mismatches
func TestVerify_MissingAndExtraFiles(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "p"+ArchiveExt)
	require.NoError(t, buildTestPackage(t).Save(archive))

	loaded, err := Load(archive)
	require.NoError(t, err)
	delete(loaded.Files, "assets/icon.svg")
	var integrity *IntegrityError
	require.True(t, errors.As(loaded.Verify(), &integrity))
	assert.Contains(t, integrity.Reason, "missing")

	loaded, err = Load(archive)
	require.NoError(t, err)
	loaded.Files["smuggled.sh"] = []byte("#!/bin/sh\n")
	require.True(t, errors.As(loaded.Verify(), &integrity))
	assert.Contains(t, integrity.Reason, "not covered")
}

// TestNew_InvalidManifest tests that package creation validates first
func TestNew_InvalidManifest(t *testing.T) {
	m := testManifest()
	m.Entry = ""

	_, err := New(m, []byte("code"), nil)
	assert.Error(t, err)
}

// TestNew_EscapingAssetPath tests asset path containment
func TestNew_EscapingAssetPath(t *testing.T) {
	_, err := New(testManifest(), []byte("code"), map[string][]byte{
		"../outside.txt": []byte("x"),
	})
	assert.Error(t, err)

	_, err = New(testManifest(), []byte("code"), map[string][]byte{
		"/etc/passwd": []byte("x"),
	})
	assert.Error(t, err)

	_, err = New(testManifest(), []byte("code"), map[string][]byte{
		"plugin.yaml": []byte("x"),
	})
	assert.Error(t, err, "manifest entry name is reserved")
}

// TestLoad_TruncatedArchive tests loading garbage
func TestLoad_TruncatedArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken"+ArchiveExt)
	require.NoError(t, os.WriteFile(path, []byte("not a gzip stream"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

// TestExtract tests writing a verified package into a directory
func TestExtract(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "p"+ArchiveExt)
	require.NoError(t, buildTestPackage(t).Save(archive))

	loaded, err := Load(archive)
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "extracted")
	require.NoError(t, loaded.Extract(dest))

	entry, err := os.ReadFile(filepath.Join(dest, "main.py"))
	require.NoError(t, err)
	assert.Equal(t, []byte("print('fans')\n"), entry)

	manifest, err := plugins.LoadManifestFromDir(dest)
	require.NoError(t, err)
	assert.Equal(t, "fan-curves", manifest.ID)

	_, err = os.Stat(filepath.Join(dest, "assets", "profiles.ini"))
	assert.NoError(t, err)
}

// TestExtract_RefusesTamperedPackage tests that extraction re-verifies
func TestExtract_RefusesTamperedPackage(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "p"+ArchiveExt)
	require.NoError(t, buildTestPackage(t).Save(archive))

	loaded, err := Load(archive)
	require.NoError(t, err)
	loaded.Files["main.py"] = []byte("rm -rf /\n")

	dest := filepath.Join(t.TempDir(), "never")
	require.Error(t, loaded.Extract(dest))

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "no bytes written from a tampered package")
}
