package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hupe1980/tensorpack"
)

func verifyCmd() *cli.Command {
	var path string

	return &cli.Command{
		Name:  "verify",
		Usage: "Check header integrity, exact file size, and read every record",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "path to the container file",
				Destination: &path,
				Required:    true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			// Open already validates magic, version, header checksum,
			// and that the file size matches the promised record count.
			r, err := tensorpack.Open(path)
			if err != nil {
				return err
			}
			defer r.Close()

			for i := 0; i < r.Count(); i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if _, _, err := r.Load(i); err != nil {
					return fmt.Errorf("record %d: %w", i, err)
				}
			}

			fmt.Printf("ok: %d records\n", r.Count())
			return nil
		},
	}
}
