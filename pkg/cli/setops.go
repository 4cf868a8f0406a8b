package cli

import (
	"flag"
	"fmt"
	"path/filepath"
)

func newReloadCommand() *Command {
	cmd := &Command{
		Name:        "reload",
		Description: "Rescan the plugins directory",
		Flags:       flag.NewFlagSet("reload", flag.ExitOnError),
		Run:         runReload,
	}

	cmd.Flags.String("server", defaultServer, "Daemon address")

	return cmd
}

func runReload(args []string) error {
	flags := flag.NewFlagSet("reload", flag.ExitOnError)
	server := flags.String("server", serverAddr(), "Daemon address")
	if err := flags.Parse(args); err != nil {
		return err
	}

	resp, err := httpClient.Post(*server+"/reload", "application/json", nil)
	if err != nil {
		return fmt.Errorf("failed to reach daemon at %s: %w", *server, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return decodeAPIError(resp)
	}
	fmt.Println("Reload complete")
	return nil
}

func newExportCommand() *Command {
	cmd := &Command{
		Name:        "export",
		Description: "Export the installed plugin set to a file",
		Flags:       flag.NewFlagSet("export", flag.ExitOnError),
		Run:         runExport,
	}

	cmd.Flags.String("server", defaultServer, "Daemon address")

	return cmd
}

func runExport(args []string) error {
	return runSetOp("export", args, "/export")
}

func newImportCommand() *Command {
	cmd := &Command{
		Name:        "import",
		Description: "Apply a previously exported plugin set",
		Flags:       flag.NewFlagSet("import", flag.ExitOnError),
		Run:         runImport,
	}

	cmd.Flags.String("server", defaultServer, "Daemon address")

	return cmd
}

func runImport(args []string) error {
	return runSetOp("import", args, "/import")
}

func runSetOp(name string, args []string, endpoint string) error {
	flags := flag.NewFlagSet(name, flag.ExitOnError)
	server := flags.String("server", serverAddr(), "Daemon address")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: %s [flags] <file>", name)
	}

	// The daemon resolves the path, so hand it an absolute one.
	path, err := filepath.Abs(flags.Arg(0))
	if err != nil {
		return err
	}

	return postResult(*server, endpoint, map[string]string{"path": path})
}
