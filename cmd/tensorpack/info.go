package main

import (
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/hupe1980/tensorpack"
)

type infoJSON struct {
	Path        string `json:"path"`
	Records     int    `json:"records"`
	InputDType  string `json:"input_dtype"`
	InputShape  []int  `json:"input_shape"`
	TargetDType string `json:"target_dtype"`
	TargetShape []int  `json:"target_shape"`
	RecordBytes int    `json:"record_bytes"`
}

func infoCmd() *cli.Command {
	var (
		path   string
		asJSON bool
	)

	return &cli.Command{
		Name:  "info",
		Usage: "Print the contract and record count of a container",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "path to the container file",
				Destination: &path,
				Required:    true,
			},
			&cli.BoolFlag{Name: "json", Usage: "emit JSON instead of text", Destination: &asJSON},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			r, err := tensorpack.Open(path)
			if err != nil {
				return err
			}
			defer r.Close()

			in, tgt := r.InputSpec(), r.TargetSpec()
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(infoJSON{
					Path:        path,
					Records:     r.Count(),
					InputDType:  in.DType.String(),
					InputShape:  in.Shape,
					TargetDType: tgt.DType.String(),
					TargetShape: tgt.Shape,
					RecordBytes: r.RecordLen(),
				})
			}

			fmt.Printf("file:    %s\n", path)
			fmt.Printf("records: %d\n", r.Count())
			fmt.Printf("input:   %s\n", in)
			fmt.Printf("target:  %s\n", tgt)
			fmt.Printf("record:  %d bytes\n", r.RecordLen())
			return nil
		},
	}
}
