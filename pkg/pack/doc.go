// Package pack implements the integrity-checked plugin archive format:
// one compressed file per (id, version) containing the manifest document,
// the entry-point file, asset files, and a checksum record with one sum
// per file plus one over the whole file set.
//
// A package loaded from disk is untrusted until Verify recomputes and
// compares every checksum. All operations are pure transforms over
// in-memory structures; only Save and Extract touch the filesystem.
package pack
