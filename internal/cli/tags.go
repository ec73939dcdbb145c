package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/koji0214/summaryoutube/internal/format"

	"github.com/spf13/cobra"
)

func newTagsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Tag vocabulary commands",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every tag in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			tags, err := c.ListTags(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, format.Envelope{
				Data: tags,
				Text: func(w io.Writer) error {
					if len(tags) == 0 {
						_, err := fmt.Fprintln(w, "No tags.")
						return err
					}
					_, err := fmt.Fprintln(w, strings.Join(tags, "\n"))
					return err
				},
			})
		},
	})
	return cmd
}
