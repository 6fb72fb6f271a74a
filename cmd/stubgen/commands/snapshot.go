package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/stubgen/display"
	"github.com/teranos/stubgen/host"
	"github.com/teranos/stubgen/logger"
)

// SnapshotCmd manages stored reflection snapshots
var SnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage stored reflection snapshots",
	Long: `Import, export, list and remove reflection snapshots kept in the SQLite
store (store.path).

Examples:
  stubgen snapshot import dumps/bpy-2.93.json
  stubgen snapshot import https://example.com/bpy-3.0.yaml
  stubgen snapshot ls
  stubgen snapshot export latest bpy.toml`,
}

var snapshotImportCmd = &cobra.Command{
	Use:   "import <source>",
	Short: "Import a snapshot file or URL into the store",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotImport,
}

var snapshotExportCmd = &cobra.Command{
	Use:   "export <id|latest> <path>",
	Short: "Write a stored snapshot to a file (format from the extension)",
	Args:  cobra.ExactArgs(2),
	RunE:  runSnapshotExport,
}

var snapshotListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored snapshots",
	RunE:    runSnapshotList,
}

var snapshotRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a stored snapshot",
	Args:    cobra.ExactArgs(1),
	RunE:    runSnapshotRemove,
}

func init() {
	snapshotListCmd.Flags().BoolP("json", "j", false, "Output as JSON")

	SnapshotCmd.AddCommand(snapshotImportCmd)
	SnapshotCmd.AddCommand(snapshotExportCmd)
	SnapshotCmd.AddCommand(snapshotListCmd)
	SnapshotCmd.AddCommand(snapshotRemoveCmd)
}

func runSnapshotImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	src, err := host.Fetch(cmd.Context(), args[0], fetchOptions(cfg), logger.ComponentLogger("host.fetch"))
	if err != nil {
		return err
	}
	defer src.Cleanup()

	snap, err := src.Load()
	if err != nil {
		return err
	}
	id, err := store.ImportSnapshot(cmd.Context(), snap, args[0])
	if err != nil {
		return err
	}
	pterm.Success.Printfln("Imported %d structs as %s", len(snap.Structs), id)
	return nil
}

func runSnapshotExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	id := args[0]
	if id == LatestSnapshot {
		rec, err := store.Latest(cmd.Context(), "")
		if err != nil {
			return err
		}
		id = rec.ID
	}
	snap, err := store.Snapshot(cmd.Context(), id)
	if err != nil {
		return err
	}
	if err := host.WriteSnapshot(args[1], snap); err != nil {
		return err
	}
	pterm.Success.Printfln("Wrote %s to %s", id, args[1])
	return nil
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Snapshots(cmd.Context())
	if err != nil {
		return err
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(records)
	}

	if len(records) == 0 {
		fmt.Println("No snapshots stored")
		return nil
	}
	data := pterm.TableData{{"ID", "Host version", "Structs", "Created", "Source"}}
	for _, r := range records {
		data = append(data, []string{
			r.ID, r.HostVersion, fmt.Sprintf("%d", r.StructCount),
			r.CreatedAt.Format("2006-01-02 15:04"), r.Source,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func runSnapshotRemove(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.DeleteSnapshot(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Removed %s\n", args[0])
	return nil
}
