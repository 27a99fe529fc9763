package catalog

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/racesim/pkg/cmd/cmdutil"
	"github.com/mpapenbr/racesim/pkg/render"
)

func NewCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "lists teams, drivers and circuits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listCatalog(cmd.OutOrStdout())
		},
	}
	return cmd
}

func listCatalog(out io.Writer) error {
	c, err := cmdutil.LoadCatalog()
	if err != nil {
		return err
	}
	return render.Catalog(out, c)
}
