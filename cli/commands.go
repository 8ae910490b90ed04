package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/foundation-data/datalib/adapters"
	"github.com/foundation-data/datalib/core"
	"github.com/foundation-data/datalib/core/format"
	"github.com/foundation-data/datalib/loader"
)

func (a *app) withClient(ctx context.Context, params *core.ConnectionParams, fn func(Client) error) error {
	client, err := a.connect(ctx, params)
	if err != nil {
		return err
	}

	err = fn(client)
	if closeErr := client.Close(); closeErr != nil {
		a.logger.Warn("closing client failed", "error", closeErr)
	}
	return err
}

func (a *app) fetchCommand() *cobra.Command {
	var (
		raw        bool
		schemaless bool
		from, to   int
	)

	cmd := &cobra.Command{
		Use:   "fetch [query]",
		Short: "Read the default table, or the result of a query",
		Long: `Reads rows from the backend and prints them.

Without a query the default table (--table) is read. With --raw the encoded
consumable is printed, one row per line, exactly as it would be handed to
another component. --from and --to select a window of rows, counted from 0,
--to -1 meaning the last row.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := "SELECT * FROM " + a.config.Table
			if len(args) == 1 {
				query = args[0]
			}

			opts := &core.FormatterOptions{ChunkStart: from}
			if schemaless {
				opts.SchemaType = core.SchemaLess
			}

			return a.withClient(cmd.Context(), &a.config.Connection, func(c Client) error {
				consumable, columns, err := c.Fetch(cmd.Context(), query)
				if err != nil {
					return err
				}

				if raw {
					lines, err := window(consumable.Data(), from, to)
					if err != nil {
						return err
					}
					return writeLines(cmd.OutOrStdout(), lines)
				}
				return a.render(cmd.OutOrStdout(), consumable, columns, to, opts)
			})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the encoded consumable")
	cmd.Flags().BoolVar(&schemaless, "schemaless", false, "print json rows as arrays instead of objects")
	cmd.Flags().IntVar(&from, "from", 0, "first row to print")
	cmd.Flags().IntVar(&to, "to", -1, "row after the last one to print, -1 for all")
	return cmd
}

var errInvalidRange = errors.New("invalid selection range")

// window returns items[from:to], to < 0 meaning the end.
func window[T any](items []T, from, to int) ([]T, error) {
	if to < 0 {
		to = len(items)
	}
	if from < 0 || from > to || to > len(items) {
		return nil, fmt.Errorf("%w: %d ... %d of %d rows", errInvalidRange, from, to, len(items))
	}
	return items[from:to], nil
}

func (a *app) render(w io.Writer, consumable *core.Consumable, columns []*core.Column, to int, opts *core.FormatterOptions) error {
	kinds := make([]core.ColumnKind, len(columns))
	header := make(core.Header, len(columns))
	for i, col := range columns {
		kinds[i] = col.Kind()
		header[i] = col.Name
	}

	codec, err := core.NewRowCodec(consumable.Format())
	if err != nil {
		return err
	}
	rows, err := core.DecodeRows(codec, consumable, kinds)
	if err != nil {
		return err
	}

	rows, err = window(rows, opts.ChunkStart, to)
	if err != nil {
		return err
	}

	return a.format(w, header, rows, opts)
}

func (a *app) format(w io.Writer, header core.Header, rows []core.Row, opts *core.FormatterOptions) error {
	formatter, err := format.ByName(a.config.Output)
	if err != nil {
		return err
	}

	out, err := formatter.Format(header, rows, opts)
	if err != nil {
		return err
	}

	if _, err := w.Write(out); err != nil {
		return err
	}
	if len(out) > 0 && out[len(out)-1] != '\n' {
		_, err = io.WriteString(w, "\n")
	}
	return err
}

func (a *app) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <schema-file>",
		Short: "Create the table described by a schema file",
		Long: `Creates a table from a schema descriptor file.

The first non-empty line is the table name, every following line is one
column definition, e.g.:

	materials
	id SERIAL PRIMARY KEY
	name VARCHAR NOT NULL

Column definitions are passed to the backend verbatim. Use "-" to read
the descriptor from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := readSchema(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			return a.withClient(cmd.Context(), &a.config.Connection, func(c Client) error {
				if err := c.ImportData(cmd.Context(), schema); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "created table %s\n", schema.Data()[0])
				return err
			})
		},
	}
}

func (a *app) ddlCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ddl <schema-file>",
		Short: "Print the CREATE TABLE statement of a schema file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := readSchema(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			query, err := core.MakeTableQueryFromConsumable(schema)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), query)
			return err
		},
	}
}

func (a *app) copySchemaCommand() *cobra.Command {
	var (
		target core.ConnectionParams
		as     string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "copy-schema <table>",
		Short: "Create a table with the shape of a source table on a target backend",
		Long: `Reads the column names and types of a table from the configured backend
and creates a table with the same columns on the target backend.

Type names are copied verbatim, so both backends need to understand them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := args[0]
			if as == "" {
				as = table
			}

			var schema *core.Consumable
			err := a.withClient(cmd.Context(), &a.config.Connection, func(c Client) error {
				columns, err := c.Columns(cmd.Context(), table)
				if err != nil {
					return err
				}
				if len(columns) == 0 {
					return fmt.Errorf("table %q has no columns or does not exist", table)
				}
				schema = core.SchemaConsumable(as, columns...)
				return nil
			})
			if err != nil {
				return err
			}

			query, err := core.MakeTableQueryFromConsumable(schema)
			if err != nil {
				return err
			}
			if dryRun {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), query)
				return err
			}

			if target.Type == "" {
				return errors.New("--target-type is required")
			}

			return a.withClient(cmd.Context(), &target, func(c Client) error {
				if err := c.ImportData(cmd.Context(), schema); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), query)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&target.Type, "target-type", "", "target backend type")
	cmd.Flags().StringVar(&target.URL, "target-url", "", "target backend connection string")
	cmd.Flags().StringVar(&as, "as", "", "name of the created table (defaults to the source name)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the statement instead of running it")
	return cmd
}

func (a *app) materialsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "materials",
		Short: "List the materials table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd.Context(), &a.config.Connection, func(c Client) error {
				materials, err := loader.LoadMaterials(cmd.Context(), c)
				if err != nil {
					return err
				}

				rows := make([]core.Row, len(materials))
				for i, m := range materials {
					rows[i] = core.Row{m.ID, m.Name}
				}
				return a.format(cmd.OutOrStdout(), core.Header{"id", "name"}, rows, &core.FormatterOptions{})
			})
		},
	}
}

func (a *app) typesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List supported backend types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			types := append(new(adapters.Mux).Types(), "pgx")
			return writeLines(cmd.OutOrStdout(), types)
		},
	}
}

// readSchema reads a schema descriptor, skipping blank lines.
func readSchema(stdin io.Reader, path string) (*core.Consumable, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading schema %q: %w", path, err)
	}

	return core.NewConsumable(lines), nil
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
