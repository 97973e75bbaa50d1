package main

import (
	"fmt"
	"io"
	"os"

	"github.com/etnz/termux-create-package/deb"
	"github.com/spf13/cobra"
)

// newInspectCmd creates the inspect command, which prints the content of a .deb.
func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <package.deb>",
		Short: "Print the control file and payload of a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			c, err := deb.ReadPackage(f)
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			printContents(cmd.OutOrStdout(), c)
			return nil
		},
	}
}

func printContents(w io.Writer, c *deb.Contents) {
	fmt.Fprintf(w, "members: %v\n", c.Members)
	fmt.Fprintf(w, "format: %q\n\n", c.FormatVersion)
	fmt.Fprint(w, c.Control)
	for _, name := range deb.ScriptFiles {
		if body := c.Scripts.Get(name); body != nil {
			fmt.Fprintf(w, "script: %s (%d bytes)\n", name, len(body))
		}
	}
	fmt.Fprintln(w)
	for _, e := range c.Entries {
		fmt.Fprintf(w, "%04o %d/%d %8d %s\n", e.Mode, e.Uid, e.Gid, e.Size, e.Name)
	}
}
