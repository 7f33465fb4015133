package main

import (
	"fmt"
	"io"
	"os"

	"github.com/propertyfriends/pf-engine/classify"
	"github.com/propertyfriends/pf-engine/reconciliation"
	"github.com/propertyfriends/pf-engine/statement"
	"github.com/spf13/cobra"
)

func parseCmd(a *app) *cobra.Command {
	var agency, adapterName string
	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse rental statement text extracted from a PDF",
		Long:  `Parses statement text and prints the extracted fields with the reconciliation line items. Use - to read stdin.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			parser := statement.NewParser(statement.DefaultResolver(), a.logger)

			var adapter statement.Adapter
			if adapterName != "" {
				var ok bool
				if adapter, ok = parser.Resolver.ByName(adapterName); !ok {
					return fmt.Errorf("unknown adapter %q", adapterName)
				}
			} else {
				adapter = parser.Resolver.Resolve(text, agency)
			}

			res := parser.Parse(text, adapter, agency)
			return printJSON(cmd.OutOrStdout(), struct {
				statement.Result
				Adapter   string                    `json:"adapter"`
				LineItems []reconciliation.LineItem `json:"line_items"`
			}{res, adapter.Name(), res.LineItems()})
		},
	}
	cmd.Flags().StringVar(&agency, "agency", "", "rental agency name hint")
	cmd.Flags().StringVar(&adapterName, "adapter", "", "force an adapter by name")
	return cmd
}

func classifyCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classify FILE",
		Short: "Classify document text by document type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), classify.Classify(text))
		},
	}
}

func readInput(cmd *cobra.Command, name string) (string, error) {
	var (
		b   []byte
		err error
	)
	if name == "-" {
		b, err = io.ReadAll(cmd.InOrStdin())
	} else {
		b, err = os.ReadFile(name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(b), nil
}
