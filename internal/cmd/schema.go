package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/passdrive/passdrive-cli/internal/iocontext"
	"github.com/passdrive/passdrive-cli/internal/queryalias"
	"github.com/passdrive/passdrive-cli/internal/schema"
)

func newSchemaCmd() *cobra.Command {
	var listAliases bool

	cmd := &cobra.Command{
		Use:   "schema [resource]",
		Short: "Describe resource shapes for scripting",
		Long: `Print the JSON shape of a resource as returned by --output json, so
scripts and agents can build jq queries without guessing field names.

Without arguments, lists the known resources. With --aliases, prints
the short field aliases accepted in --jq expressions.`,
		Example: `  pd schema
  pd schema message
  pd schema --aliases`,
		Args: cobra.MaximumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ioStreams := iocontext.GetIO(cmd.Context())

			if listAliases {
				entries := queryalias.Entries()
				if isJSON(cmd) {
					return printJSON(cmd, entries)
				}
				w := newTabWriter(ioStreams.Out)
				_, _ = fmt.Fprintln(w, "ALIAS\tFIELD")
				for _, e := range entries {
					_, _ = fmt.Fprintf(w, "%s\t%s\n", e.Alias, e.Canonical)
				}
				return w.Flush()
			}

			if len(args) == 0 {
				names := schema.List()
				if isJSON(cmd) {
					return printJSON(cmd, map[string]any{"resources": names})
				}
				_, _ = fmt.Fprintln(ioStreams.Out, "Resources:")
				for _, name := range names {
					_, _ = fmt.Fprintf(ioStreams.Out, "  %s\n", name)
				}
				_, _ = fmt.Fprintln(ioStreams.Out, "\nRun 'pd schema <resource>' for the field layout.")
				return nil
			}

			name := strings.ToLower(strings.TrimSpace(args[0]))
			s, err := schema.Get(name)
			if err != nil {
				return err
			}
			return printJSON(cmd, s)
		}),
	}

	cmd.Flags().BoolVar(&listAliases, "aliases", false, "List jq field aliases")

	return cmd
}
