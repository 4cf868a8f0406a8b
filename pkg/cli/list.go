package cli

import (
	"flag"
	"fmt"

	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/installer"
	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/plugins"
)

func newListCommand() *Command {
	cmd := &Command{
		Name:        "list",
		Description: "List loaded plugins",
		Flags:       flag.NewFlagSet("list", flag.ExitOnError),
		Run:         runList,
	}

	cmd.Flags.String("server", defaultServer, "Daemon address")
	cmd.Flags.String("category", "", "Filter by category")

	return cmd
}

func runList(args []string) error {
	flags := flag.NewFlagSet("list", flag.ExitOnError)
	server := flags.String("server", serverAddr(), "Daemon address")
	category := flags.String("category", "", "Filter by category")
	if err := flags.Parse(args); err != nil {
		return err
	}

	path := "/plugins"
	if *category != "" {
		path = "/plugins/category/" + *category
	}

	var list []plugins.Metadata
	if err := getJSON(*server, path, &list); err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Println("No plugins loaded")
		return nil
	}

	fmt.Printf("%-25s %-20s %-12s %s\n", "ID", "NAME", "CATEGORY", "BADGE")
	for _, m := range list {
		fmt.Printf("%-25s %-20s %-12s %s\n", m.ID, m.Name, m.Category, m.Badge)
	}
	return nil
}

func newInfoCommand() *Command {
	cmd := &Command{
		Name:        "info",
		Description: "Show details for one plugin",
		Flags:       flag.NewFlagSet("info", flag.ExitOnError),
		Run:         runInfo,
	}

	cmd.Flags.String("server", defaultServer, "Daemon address")

	return cmd
}

func runInfo(args []string) error {
	flags := flag.NewFlagSet("info", flag.ExitOnError)
	server := flags.String("server", serverAddr(), "Daemon address")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: info [flags] <plugin-id>")
	}

	var view struct {
		Manifest *plugins.Manifest `json:"manifest"`
		Metadata plugins.Metadata  `json:"metadata"`
		Enabled  bool              `json:"enabled"`
	}
	if err := getJSON(*server, "/plugins/"+flags.Arg(0), &view); err != nil {
		return err
	}

	m := view.Manifest
	fmt.Printf("ID:          %s\n", m.ID)
	fmt.Printf("Name:        %s\n", m.Name)
	fmt.Printf("Version:     %s\n", m.Version)
	fmt.Printf("Author:      %s\n", m.Author)
	fmt.Printf("Description: %s\n", m.Description)
	fmt.Printf("Category:    %s\n", view.Metadata.Category)
	fmt.Printf("Badge:       %s\n", view.Metadata.Badge)
	fmt.Printf("Enabled:     %v\n", view.Enabled)
	if len(m.Capabilities) > 0 {
		fmt.Printf("Capabilities: %v\n", m.Capabilities)
	}
	return nil
}

func newHistoryCommand() *Command {
	cmd := &Command{
		Name:        "history",
		Description: "Show lifecycle history for a plugin",
		Flags:       flag.NewFlagSet("history", flag.ExitOnError),
		Run:         runHistory,
	}

	cmd.Flags.String("server", defaultServer, "Daemon address")
	cmd.Flags.Int("limit", 20, "Maximum entries")

	return cmd
}

func runHistory(args []string) error {
	flags := flag.NewFlagSet("history", flag.ExitOnError)
	server := flags.String("server", serverAddr(), "Daemon address")
	limit := flags.Int("limit", 20, "Maximum entries")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: history [flags] <plugin-id>")
	}

	var entries []installer.HistoryEntry
	path := fmt.Sprintf("/plugins/%s/history?limit=%d", flags.Arg(0), *limit)
	if err := getJSON(*server, path, &entries); err != nil {
		return err
	}

	for _, e := range entries {
		outcome := "ok"
		if !e.Success {
			outcome = "failed"
		}
		fmt.Printf("%s  %-10s %-8s %s\n",
			e.OccurredAt.Format("2006-01-02 15:04:05"), e.Action, outcome, e.Message)
	}
	return nil
}
