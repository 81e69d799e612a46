package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ccdb/internal/domain/search/format"
	"github.com/kailas-cloud/ccdb/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/ccdb/internal/logger"
)

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Stream matching complaints to a CSV or JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: string(format.CSV), Usage: "csv or json"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "-", Usage: "Output file, - for stdout"},
			&cli.StringFlag{Name: "search-term", Usage: "Full-text search term"},
			&cli.StringFlag{Name: "field", Value: string(request.FieldNarrative), Usage: "Text field to search"},
			&cli.StringFlag{Name: "sort", Value: string(request.CreatedDateDesc), Usage: "Sort order"},
			&cli.IntFlag{Name: "frm", Usage: "Offset of the first row"},
			&cli.IntFlag{Name: "size", Value: request.DefaultSize, Usage: "Number of rows"},
			&cli.StringSliceFlag{Name: "filter", Usage: "dimension=value, repeatable (state=CA)"},
			&cli.StringFlag{Name: "date-received-min", Usage: "YYYY-MM-DD"},
			&cli.StringFlag{Name: "date-received-max", Usage: "YYYY-MM-DD"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			p, err := exportParams(c)
			if err != nil {
				return err
			}

			a, err := bootstrap(ctx, c)
			if err != nil {
				return err
			}
			defer a.close()

			out, closeOut, err := openOutput(c.String("output"))
			if err != nil {
				return err
			}
			defer closeOut()

			exporter := a.exporter()
			job := exporter.NewJob(p.Format)
			ctx = logpkg.ContextWithLogger(ctx, a.logger)

			bw := bufio.NewWriter(out)
			n, err := exporter.WriteTo(ctx, bw, p, job)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			if err := bw.Flush(); err != nil {
				return fmt.Errorf("flush output: %w", err)
			}

			a.logger.Info("Export written",
				zap.String("export_id", job.ID),
				zap.Int("rows", job.Rows),
				zap.Int64("bytes", n),
			)
			return nil
		},
	}
}

// exportParams maps command flags onto a validated parameter set.
func exportParams(c *cli.Command) (request.Params, error) {
	p := request.Defaults()
	p.Format = format.Format(c.String("format"))
	if !p.Format.IsExport() {
		return p, fmt.Errorf("format must be csv or json, got %q", p.Format)
	}
	p.Field = request.Field(c.String("field"))
	p.Sort = request.Sort(c.String("sort"))
	p.SearchTerm = c.String("search-term")
	p = p.WithPage(c.Int("frm"), c.Int("size"))
	p.NoAggs = true
	p.NoHighlight = true

	for _, f := range c.StringSlice("filter") {
		dim, value, ok := strings.Cut(f, "=")
		if !ok || value == "" {
			return p, fmt.Errorf("filter %q: expected dimension=value", f)
		}
		d := request.Dimension(dim)
		if !isDimension(d) {
			return p, fmt.Errorf("filter %q: unknown dimension %q", f, dim)
		}
		p = p.WithFilter(d, append(p.Filter(d), value)...)
	}

	var err error
	if p.DateReceived.Min, err = parseDate(c.String("date-received-min")); err != nil {
		return p, err
	}
	if p.DateReceived.Max, err = parseDate(c.String("date-received-max")); err != nil {
		return p, err
	}

	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

func isDimension(d request.Dimension) bool {
	for _, known := range request.Dimensions {
		if d == known {
			return true
		}
	}
	return false
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("date %q: expected YYYY-MM-DD", s)
	}
	return &t, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}
