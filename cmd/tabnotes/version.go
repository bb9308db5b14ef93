package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/tabnotes"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of tabnotes",
		Run: func(cmd *cobra.Command, args []string) {
			outf(cmd, "tabnotes version %s\n", strings.TrimSpace(tabnotes.Version))
		},
	}
}
