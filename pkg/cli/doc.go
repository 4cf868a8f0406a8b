// Package cli implements the tweaks-plugin command line interface.
//
// Most subcommands are thin HTTP clients against the tweaks-plugind admin
// API; the pack subcommand builds distributable plugin archives locally.
package cli
