package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/passdrive/passdrive-cli/internal/iocontext"
	"github.com/passdrive/passdrive-cli/internal/outfmt"
)

// commandDoc is the machine-readable description of one command.
type commandDoc struct {
	Name        string       `json:"name"`
	Path        string       `json:"path"`
	Short       string       `json:"short"`
	Aliases     []string     `json:"aliases,omitempty"`
	Use         string       `json:"use"`
	Example     string       `json:"example,omitempty"`
	Flags       []flagDoc    `json:"flags,omitempty"`
	Subcommands []commandDoc `json:"subcommands,omitempty"`
}

type flagDoc struct {
	Name      string `json:"name"`
	Shorthand string `json:"shorthand,omitempty"`
	Usage     string `json:"usage"`
	Default   string `json:"default,omitempty"`
	Type      string `json:"type"`
}

// newHelpJSONCmd returns a hidden command that dumps the full command tree
// as JSON so agents can discover the CLI surface in one call.
func newHelpJSONCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "help-json",
		Short:  "Dump the command tree as JSON",
		Hidden: true,
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ioStreams := iocontext.GetIO(cmd.Context())
			doc := describeCommand(cmd.Root())
			return outfmt.WriteJSON(ioStreams.Out, doc)
		}),
	}
}

func describeCommand(cmd *cobra.Command) commandDoc {
	doc := commandDoc{
		Name:    cmd.Name(),
		Path:    cmd.CommandPath(),
		Short:   cmd.Short,
		Aliases: cmd.Aliases,
		Use:     cmd.Use,
		Example: cmd.Example,
	}

	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		doc.Flags = append(doc.Flags, flagDoc{
			Name:      f.Name,
			Shorthand: f.Shorthand,
			Usage:     f.Usage,
			Default:   f.DefValue,
			Type:      f.Value.Type(),
		})
	})

	for _, sub := range cmd.Commands() {
		if sub.Hidden || sub.Name() == "help" || sub.Name() == "completion" {
			continue
		}
		doc.Subcommands = append(doc.Subcommands, describeCommand(sub))
	}

	return doc
}
