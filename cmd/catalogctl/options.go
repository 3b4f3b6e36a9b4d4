package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/grocerygrid/backend/internal/app"
	"github.com/grocerygrid/backend/internal/domain"
	"github.com/spf13/cobra"
)

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the categories, allergens and nutrients of the loaded catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		defer catalog.Close()

		opts := catalog.Service.Engine().Options()
		if jsonFlag {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(opts)
		}

		renderOptions(os.Stdout, opts)
		return nil
	},
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the configured sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		sources := app.Sources(loadedConfig)
		if jsonFlag {
			return json.NewEncoder(os.Stdout).Encode(sources)
		}

		rows := make([][]string, 0, len(sources))
		for _, s := range sources {
			rows = append(rows, []string{s.Name, s.Label, s.URL})
		}
		writeTable(os.Stdout, []string{"NAME", "LABEL", "URL"}, rows, nil)
		return nil
	},
}

func renderOptions(w io.Writer, opts domain.CatalogOptions) {
	heading := color.New(color.Bold)
	sections := []struct {
		title  string
		values []string
	}{
		{"Categories", opts.Categories},
		{"Allergens", opts.Allergens},
		{"Nutrients", opts.Nutrients},
	}

	for _, s := range sections {
		heading.Fprintf(w, "%s (%d)\n", s.title, len(s.values))
		if len(s.values) == 0 {
			fmt.Fprintln(w, "  -")
			continue
		}
		fmt.Fprintf(w, "  %s\n", strings.Join(s.values, "\n  "))
	}
}
