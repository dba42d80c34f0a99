// Command tensorpack is a thin wrapper around the tensorpack library for
// inspecting and verifying container files. Packing is left to the
// programs that produce the arrays.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "tensorpack",
		Usage: "Inspect and verify tensorpack dataset containers",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			infoCmd(),
			verifyCmd(),
			catCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
