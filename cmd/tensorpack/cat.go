package main

import (
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/hupe1980/tensorpack"
	"github.com/hupe1980/tensorpack/tensor"
)

type arrayJSON struct {
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Values any    `json:"values"`
}

type recordJSON struct {
	Index  int       `json:"index"`
	Input  arrayJSON `json:"input"`
	Target arrayJSON `json:"target"`
}

func catCmd() *cli.Command {
	var (
		path  string
		index int
	)

	return &cli.Command{
		Name:  "cat",
		Usage: "Print one record as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "path to the container file",
				Destination: &path,
				Required:    true,
			},
			&cli.IntFlag{
				Name:        "index",
				Aliases:     []string{"i"},
				Usage:       "record index",
				Destination: &index,
				Required:    true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			r, err := tensorpack.Open(path)
			if err != nil {
				return err
			}
			defer r.Close()

			input, target, err := r.Load(index)
			if err != nil {
				return err
			}

			in, err := toArrayJSON(input)
			if err != nil {
				return err
			}
			tgt, err := toArrayJSON(target)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(recordJSON{Index: index, Input: in, Target: tgt})
		},
	}
}

func toArrayJSON(d *tensor.Dense) (arrayJSON, error) {
	values, err := elementValues(d)
	if err != nil {
		return arrayJSON{}, err
	}
	return arrayJSON{
		DType:  d.DType().String(),
		Shape:  d.Shape(),
		Values: values,
	}, nil
}

// elementValues extracts a flat, row-major value slice for JSON output.
func elementValues(d *tensor.Dense) (any, error) {
	switch d.DType() {
	case tensor.Int8:
		return d.Int8s()
	case tensor.Int16:
		return d.Int16s()
	case tensor.Int32:
		return d.Int32s()
	case tensor.Int64:
		return d.Int64s()
	case tensor.Uint8:
		return d.Uint8s()
	case tensor.Uint16:
		return d.Uint16s()
	case tensor.Uint32:
		return d.Uint32s()
	case tensor.Uint64:
		return d.Uint64s()
	case tensor.Float16:
		return d.Float16s()
	case tensor.Float32:
		return d.Float32s()
	case tensor.Float64:
		return d.Float64s()
	case tensor.Bool:
		return d.Bools()
	default:
		return nil, fmt.Errorf("unhandled dtype %s", d.DType())
	}
}
