package cli

import (
	"flag"
	"fmt"
)

func newInstallCommand() *Command {
	cmd := &Command{
		Name:        "install",
		Description: "Install a plugin from the configured source",
		Flags:       flag.NewFlagSet("install", flag.ExitOnError),
		Run:         runInstall,
	}

	cmd.Flags.String("server", defaultServer, "Daemon address")

	return cmd
}

func runInstall(args []string) error {
	return runSimpleLifecycle("install", args, "/install")
}

func newUninstallCommand() *Command {
	cmd := &Command{
		Name:        "uninstall",
		Description: "Uninstall a plugin",
		Flags:       flag.NewFlagSet("uninstall", flag.ExitOnError),
		Run:         runUninstall,
	}

	cmd.Flags.String("server", defaultServer, "Daemon address")
	cmd.Flags.Bool("backup", true, "Keep a backup for rollback")

	return cmd
}

func runUninstall(args []string) error {
	flags := flag.NewFlagSet("uninstall", flag.ExitOnError)
	server := flags.String("server", serverAddr(), "Daemon address")
	backup := flags.Bool("backup", true, "Keep a backup for rollback")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: uninstall [flags] <plugin-id>")
	}

	path := fmt.Sprintf("/plugins/%s/uninstall?backup=%v", flags.Arg(0), *backup)
	return postResult(*server, path, nil)
}

func newUpdateCommand() *Command {
	cmd := &Command{
		Name:        "update",
		Description: "Check for or apply a plugin update",
		Flags:       flag.NewFlagSet("update", flag.ExitOnError),
		Run:         runUpdate,
	}

	cmd.Flags.String("server", defaultServer, "Daemon address")
	cmd.Flags.Bool("apply", false, "Apply the update instead of checking")

	return cmd
}

func runUpdate(args []string) error {
	flags := flag.NewFlagSet("update", flag.ExitOnError)
	server := flags.String("server", serverAddr(), "Daemon address")
	apply := flags.Bool("apply", false, "Apply the update instead of checking")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: update [flags] <plugin-id>")
	}

	id := flags.Arg(0)
	if *apply {
		return postResult(*server, "/plugins/"+id+"/update", nil)
	}

	var res struct {
		Success bool           `json:"success"`
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	if err := getJSON(*server, "/plugins/"+id+"/update", &res); err != nil {
		return err
	}
	fmt.Println(res.Message)
	return nil
}

func newRollbackCommand() *Command {
	cmd := &Command{
		Name:        "rollback",
		Description: "Restore a plugin from its most recent backup",
		Flags:       flag.NewFlagSet("rollback", flag.ExitOnError),
		Run:         runRollback,
	}

	cmd.Flags.String("server", defaultServer, "Daemon address")

	return cmd
}

func runRollback(args []string) error {
	return runSimpleLifecycle("rollback", args, "/rollback")
}

func newEnableCommand() *Command {
	cmd := &Command{
		Name:        "enable",
		Description: "Enable a plugin",
		Flags:       flag.NewFlagSet("enable", flag.ExitOnError),
		Run:         runEnable,
	}

	cmd.Flags.String("server", defaultServer, "Daemon address")

	return cmd
}

func runEnable(args []string) error {
	return runSimpleLifecycle("enable", args, "/enable")
}

func newDisableCommand() *Command {
	cmd := &Command{
		Name:        "disable",
		Description: "Disable a plugin without uninstalling it",
		Flags:       flag.NewFlagSet("disable", flag.ExitOnError),
		Run:         runDisable,
	}

	cmd.Flags.String("server", defaultServer, "Daemon address")

	return cmd
}

func runDisable(args []string) error {
	return runSimpleLifecycle("disable", args, "/disable")
}

// runSimpleLifecycle handles the id-only lifecycle subcommands.
func runSimpleLifecycle(name string, args []string, suffix string) error {
	flags := flag.NewFlagSet(name, flag.ExitOnError)
	server := flags.String("server", serverAddr(), "Daemon address")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: %s [flags] <plugin-id>", name)
	}

	return postResult(*server, "/plugins/"+flags.Arg(0)+suffix, nil)
}
