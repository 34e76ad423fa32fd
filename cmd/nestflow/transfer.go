package main

import (
	"fmt"
	"io"
	"os"

	"github.com/aretw0/nestflow/internal/transfer"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export MODULE_ID",
	Short: "Write a module record as JSON or YAML",
	Long:  `Writes the module to --out, or stdout. The format follows the file extension unless --format is set.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, eng := mustOpen(cmd, nil)
		defer a.close()

		m, err := eng.Modules().Load(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Error loading module: %v\n", err)
			a.close()
			os.Exit(1)
		}

		out, _ := cmd.Flags().GetString("out")
		format := formatFlag(cmd, out)

		var w io.Writer = os.Stdout
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				a.close()
				os.Exit(1)
			}
			defer f.Close()
			w = f
		}
		if err := transfer.Export(w, m, format); err != nil {
			fmt.Printf("Error exporting module: %v\n", err)
			a.close()
			os.Exit(1)
		}
	},
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Store a module record read from JSON or YAML",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, eng := mustOpen(cmd, nil)
		defer a.close()

		f, err := os.Open(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			a.close()
			os.Exit(1)
		}
		defer f.Close()

		m, err := transfer.Import(f, formatFlag(cmd, args[0]))
		if err != nil {
			fmt.Printf("Error reading module: %v\n", err)
			a.close()
			os.Exit(1)
		}
		if _, err := eng.Modules().Load(cmd.Context(), m.ID); err == nil {
			a.logger.Warn("Replacing existing module", "module_id", m.ID)
		}
		if err := eng.Modules().Save(cmd.Context(), m); err != nil {
			fmt.Printf("Error saving module: %v\n", err)
			a.close()
			os.Exit(1)
		}
		fmt.Printf("Imported module '%s' (%s, %d nodes)\n", m.Title, m.ID, len(m.Content.Nodes))
	},
}

func formatFlag(cmd *cobra.Command, path string) transfer.Format {
	if f, _ := cmd.Flags().GetString("format"); f != "" {
		return transfer.Format(f)
	}
	return transfer.FormatFor(path)
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)

	exportCmd.Flags().StringP("out", "o", "", "Output file (stdout when empty)")
	exportCmd.Flags().String("format", "", "json or yaml (default from the file extension)")
	importCmd.Flags().String("format", "", "json or yaml (default from the file extension)")
}
