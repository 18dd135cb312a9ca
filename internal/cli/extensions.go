package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/Fimeg/partnernotice/internal/database/queries"
	"github.com/Fimeg/partnernotice/internal/models"
	"github.com/spf13/cobra"
)

var (
	extensionsJSON       bool
	extensionsActiveOnly bool
)

var extensionsCmd = &cobra.Command{
	Use:   "extensions",
	Short: "List registered extensions",
	RunE:  runExtensions,
}

func init() {
	extensionsCmd.Flags().BoolVar(&extensionsJSON, "json", false, "Output in JSON format")
	extensionsCmd.Flags().BoolVar(&extensionsActiveOnly, "active", false, "Only list active extensions")
	rootCmd.AddCommand(extensionsCmd)
}

func runExtensions(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := queries.NewExtensionQueries(db.DB).ListExtensions(ctx)
	if err != nil {
		return err
	}
	return printExtensions(cmd.OutOrStdout(), records, extensionsActiveOnly, extensionsJSON)
}

func printExtensions(w io.Writer, records map[string]models.Extension, activeOnly, asJSON bool) error {
	var listing []models.ExtensionListing
	for _, ext := range records {
		if activeOnly && !ext.Status.IsActive() {
			continue
		}
		listing = append(listing, models.ExtensionListing{Extension: ext, Active: ext.Status.IsActive()})
	}
	sort.Slice(listing, func(i, j int) bool { return listing[i].File < listing[j].File })

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(listing)
	}

	if len(listing) == 0 {
		fmt.Fprintln(w, "No extensions registered.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tNAME\tVERSION\tSTATUS")
	for _, e := range listing {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.File, e.Name, e.Version, e.Status)
	}
	return tw.Flush()
}
