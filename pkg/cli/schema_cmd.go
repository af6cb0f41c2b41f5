package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"semcube/internal/declarative"
	"semcube/internal/service/schema"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect and validate cube declarations",
	}
	cmd.AddCommand(newSchemaValidateCmd())
	cmd.AddCommand(newSchemaListCmd())
	return cmd
}

func newSchemaValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load all cube declarations and report validation errors",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := loadSchema(cmd)
			if err != nil {
				return err
			}

			if outputFormat(cmd) == "json" {
				failed := make([]map[string]string, 0, len(result.Failed))
				for _, f := range result.Failed {
					failed = append(failed, map[string]string{"cube": f.Cube, "file": f.File, "error": f.Err.Error()})
				}
				return printJSON(os.Stdout, map[string]interface{}{
					"loaded": result.Snapshot.Names(),
					"failed": failed,
				})
			}

			for _, name := range result.Snapshot.Names() {
				fmt.Fprintf(os.Stdout, "ok    %s\n", name)
			}
			for _, f := range result.Failed {
				fmt.Fprintf(os.Stdout, "error %s: %v\n", f.Cube, f.Err)
			}
			if len(result.Failed) > 0 {
				return fmt.Errorf("%d cube(s) failed validation", len(result.Failed))
			}
			return nil
		},
	}
}

func newSchemaListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List loaded cubes with their members",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := loadSchema(cmd)
			if err != nil {
				return err
			}

			type memberInfo struct {
				Measures   []string `json:"measures"`
				Dimensions []string `json:"dimensions"`
				Segments   []string `json:"segments"`
			}
			cubes := map[string]memberInfo{}
			for _, name := range result.Snapshot.Names() {
				cube, err := result.Snapshot.Cube(name)
				if err != nil {
					return err
				}
				info := memberInfo{}
				for m := range cube.Measures {
					info.Measures = append(info.Measures, m)
				}
				for d := range cube.Dimensions {
					info.Dimensions = append(info.Dimensions, d)
				}
				for s := range cube.Segments {
					info.Segments = append(info.Segments, s)
				}
				sort.Strings(info.Measures)
				sort.Strings(info.Dimensions)
				sort.Strings(info.Segments)
				cubes[name] = info
			}

			if outputFormat(cmd) == "json" {
				return printJSON(os.Stdout, cubes)
			}
			for _, name := range result.Snapshot.Names() {
				info := cubes[name]
				fmt.Fprintf(os.Stdout, "%s\n  measures:   %v\n  dimensions: %v\n  segments:   %v\n",
					name, info.Measures, info.Dimensions, info.Segments)
			}
			return nil
		},
	}
}

// loadSchema loads and validates the configured schema directory.
func loadSchema(cmd *cobra.Command) (*schema.LoadResult, error) {
	cfg := configFrom(cmd.Context())
	docs, err := declarative.LoadDirectory(cfg.SchemaDir)
	if err != nil {
		return nil, err
	}
	return schema.Load(docs, schema.Policy{RequirePrimaryKey: cfg.RequirePrimaryKey}), nil
}
