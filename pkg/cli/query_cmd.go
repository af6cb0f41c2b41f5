package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"semcube/internal/domain"
	"semcube/internal/service/semantic"
)

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Compile semantic queries against loaded cubes",
	}
	cmd.AddCommand(newQueryCompileCmd())
	cmd.AddCommand(newQueryDrillCmd())
	return cmd
}

func newQueryCompileCmd() *cobra.Command {
	var (
		cubeName    string
		measures    []string
		dimensions  []string
		segments    []string
		filters     []string
		timeDim     string
		granularity string
		dateRange   string
		orderBy     []string
		limit       int
		offset      int
	)

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a query request into SQL plus a column manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := loadSchema(cmd)
			if err != nil {
				return err
			}
			cube, err := result.Snapshot.Cube(cubeName)
			if err != nil {
				return fmt.Errorf("cube %q is not loaded", cubeName)
			}

			req := domain.QueryRequest{
				Cube:       cubeName,
				Measures:   measures,
				Dimensions: dimensions,
				Segments:   segments,
			}
			for _, raw := range filters {
				f, err := parseFilterFlag(raw)
				if err != nil {
					return err
				}
				req.Filters = append(req.Filters, f)
			}
			if timeDim != "" {
				td := &domain.TimeDimensionRequest{Dimension: timeDim, Grain: domain.Grain(granularity)}
				if dateRange != "" {
					from, to, err := parseDateRange(dateRange)
					if err != nil {
						return err
					}
					td.From, td.To = from, to
				}
				req.TimeDimension = td
			}
			for _, o := range orderBy {
				member, desc := strings.CutSuffix(o, ":desc")
				req.Order = append(req.Order, domain.Order{Member: member, Descending: desc})
			}
			if cmd.Flags().Changed("limit") {
				req.Limit = &limit
			}
			if cmd.Flags().Changed("offset") {
				req.Offset = &offset
			}

			compiled, err := semantic.NewPlanner().Compile(cube, req)
			if err != nil {
				return err
			}

			if outputFormat(cmd) == "json" {
				return printJSON(os.Stdout, compiled)
			}
			fmt.Fprintln(os.Stdout, compiled.SQL)
			if len(compiled.Args) > 0 {
				fmt.Fprintf(os.Stdout, "-- args: %v\n", compiled.Args)
			}
			for _, entry := range compiled.Manifest {
				fmt.Fprintf(os.Stdout, "-- %s: %s %s\n", entry.Alias, entry.MemberType, entry.SemanticType)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cubeName, "cube", "", "cube name (required)")
	cmd.Flags().StringSliceVar(&measures, "measures", nil, "measure names")
	cmd.Flags().StringSliceVar(&dimensions, "dimensions", nil, "dimension names")
	cmd.Flags().StringSliceVar(&segments, "segments", nil, "segment names")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "ad-hoc filter field:op[:value[,value...]], repeatable")
	cmd.Flags().StringVar(&timeDim, "time-dimension", "", "time dimension name")
	cmd.Flags().StringVar(&granularity, "granularity", "", "time grain (second..year)")
	cmd.Flags().StringVar(&dateRange, "date-range", "", "half-open range start,end (RFC 3339 or YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&orderBy, "order", nil, "order members, suffix :desc for descending")
	cmd.Flags().IntVar(&limit, "limit", 0, "row limit")
	cmd.Flags().IntVar(&offset, "offset", 0, "row offset")
	_ = cmd.MarkFlagRequired("cube")
	return cmd
}

func newQueryDrillCmd() *cobra.Command {
	var (
		cubeName string
		measure  string
		at       []string
	)

	cmd := &cobra.Command{
		Use:   "drill",
		Short: "Derive the drill-down request for a measure and result row",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := loadSchema(cmd)
			if err != nil {
				return err
			}
			cube, err := result.Snapshot.Cube(cubeName)
			if err != nil {
				return fmt.Errorf("cube %q is not loaded", cubeName)
			}

			row := map[string]interface{}{}
			for _, pair := range at {
				field, value, ok := strings.Cut(pair, "=")
				if !ok {
					return fmt.Errorf("--at must be dimension=value, got %q", pair)
				}
				row[field] = value
			}

			req, err := semantic.NewPlanner().DrillDown(cube, measure, row)
			if err != nil {
				return err
			}
			if outputFormat(cmd) == "json" {
				return printJSON(os.Stdout, req)
			}
			fmt.Fprintf(os.Stdout, "measures:   %v\ndimensions: %v\nfilters:    %+v\n",
				req.Measures, req.Dimensions, req.Filters)
			return nil
		},
	}

	cmd.Flags().StringVar(&cubeName, "cube", "", "cube name (required)")
	cmd.Flags().StringVar(&measure, "measure", "", "measure to drill into (required)")
	cmd.Flags().StringArrayVar(&at, "at", nil, "row coordinate dimension=value, repeatable")
	_ = cmd.MarkFlagRequired("cube")
	_ = cmd.MarkFlagRequired("measure")
	return cmd
}

// parseFilterFlag parses field:op[:value[,value...]].
func parseFilterFlag(raw string) (domain.Filter, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) < 2 {
		return domain.Filter{}, fmt.Errorf("filter must be field:op[:value], got %q", raw)
	}
	f := domain.Filter{Field: parts[0], Operator: domain.FilterOperator(parts[1])}
	if len(parts) == 3 {
		for _, v := range strings.Split(parts[2], ",") {
			f.Values = append(f.Values, v)
		}
	}
	return f, nil
}

// parseDateRange parses "start,end" where either bound may be empty.
func parseDateRange(raw string) (*time.Time, *time.Time, error) {
	start, end, ok := strings.Cut(raw, ",")
	if !ok {
		return nil, nil, fmt.Errorf("date range must be start,end, got %q", raw)
	}
	parse := func(s string) (*time.Time, error) {
		if s == "" {
			return nil, nil
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, fmt.Errorf("cannot parse time %q", s)
		}
		t = t.UTC()
		return &t, nil
	}
	from, err := parse(strings.TrimSpace(start))
	if err != nil {
		return nil, nil, err
	}
	to, err := parse(strings.TrimSpace(end))
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}
