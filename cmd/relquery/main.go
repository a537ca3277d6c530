// Package main contains the relquery CLI. It wires the seven components
// together behind a thin cobra command tree; it has no business logic of
// its own beyond flag parsing and output formatting.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"relquery/internal/connconfig"
	"relquery/internal/dialectkind"
	"relquery/internal/introspect"
	_ "relquery/internal/introspect/mysql"
	_ "relquery/internal/introspect/postgresql"
	_ "relquery/internal/introspect/sqlite"
	"relquery/internal/optimizer"
	"relquery/internal/profiler"
	"relquery/internal/schema"
	"relquery/internal/schemaconfig"
	"relquery/internal/transform"
	_ "relquery/internal/transform/mysql"
	_ "relquery/internal/transform/postgresql"
	_ "relquery/internal/transform/sqlite"
)

type buildFlags struct {
	file    string
	dialect string
}

type introspectFlags struct {
	dsn string
}

type profileFlags struct {
	dsn     string
	sql     string
	elapsed float64
}

type transformFlags struct {
	file  string
	from  string
	to    string
	table string
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "relquery",
		Short: "Cross-dialect SQL query and schema toolkit",
	}

	rootCmd.AddCommand(buildCmd())
	rootCmd.AddCommand(introspectCmd())
	rootCmd.AddCommand(profileCmd())
	rootCmd.AddCommand(transformCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildCmd() *cobra.Command {
	flags := &buildFlags{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render CREATE TABLE DDL for a TOML schema file",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBuild(flags)
		},
	}
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Path to the TOML schema file")
	cmd.Flags().StringVar(&flags.dialect, "dialect", "mysql", "Target dialect (mysql, sqlite, postgresql)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runBuild(flags *buildFlags) error {
	dialect, err := dialectkind.Parse(flags.dialect)
	if err != nil {
		return err
	}

	db, err := schemaconfig.NewParser().ParseFile(flags.file)
	if err != nil {
		return fmt.Errorf("parsing schema: %w", err)
	}

	platform := transform.PlatformFor(schema.Dialect(dialect))
	if platform == nil {
		return fmt.Errorf("no DDL platform registered for dialect %q", dialect)
	}

	for _, table := range db.Tables {
		fmt.Println(renderCreateTable(table, platform))
		fmt.Println()
	}
	return nil
}

func renderCreateTable(t *schema.Table, platform transform.Platform) string {
	var parts []string
	for _, col := range t.Columns {
		parts = append(parts, "  "+platform.ColumnSQL(col, t))
	}
	for _, c := range t.Constraints {
		parts = append(parts, "  "+platform.ConstraintSQL(c))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE %s (\n%s\n);", platform.QuoteIdentifier(t.Name), strings.Join(parts, ",\n"))

	for _, idx := range t.Indexes {
		sb.WriteString("\n" + platform.IndexSQL(idx, t) + ";")
	}
	return sb.String()
}

func introspectCmd() *cobra.Command {
	flags := &introspectFlags{}
	cmd := &cobra.Command{
		Use:   "introspect",
		Short: "Read a live database's schema and print it as JSON",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runIntrospect(flags)
		},
	}
	cmd.Flags().StringVar(&flags.dsn, "dsn", "", `Connection DSN, e.g. "mysql:host=localhost;user=root;database=app"`)
	_ = cmd.MarkFlagRequired("dsn")
	return cmd
}

func runIntrospect(flags *introspectFlags) error {
	cfg, err := connconfig.ParseDSN(flags.dsn)
	if err != nil {
		return err
	}

	db, err := connconfig.Open(cfg)
	if err != nil {
		return fmt.Errorf("opening connection: %w", err)
	}
	defer db.Close()

	introspecter, err := introspect.NewIntrospecter(schema.Dialect(cfg.Dialect))
	if err != nil {
		return err
	}

	ctx := context.Background()
	result, err := introspecter.Introspect(ctx, db)
	if err != nil {
		return fmt.Errorf("introspecting: %w", err)
	}

	for _, table := range result.Tables {
		fkOut, fkIn := countForeignKeys(result, table)
		profile := optimizer.BuildProfile(table, fkOut, fkIn)
		fmt.Printf("table %s: %d columns, estimated row size %d bytes\n", table.Name, len(table.Columns), profile.EstimatedRowSize)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func countForeignKeys(db *schema.Database, t *schema.Table) (out, in int) {
	for _, c := range t.Constraints {
		if c.Type == schema.ConstraintForeignKey {
			out++
		}
	}
	for _, other := range db.Tables {
		if other.Name == t.Name {
			continue
		}
		for _, c := range other.Constraints {
			if c.Type == schema.ConstraintForeignKey && c.ReferencedTable == t.Name {
				in++
			}
		}
	}
	return out, in
}

func profileCmd() *cobra.Command {
	flags := &profileFlags{}
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Analyze a single SQL query for structural and EXPLAIN-based suggestions",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runProfile(flags)
		},
	}
	cmd.Flags().StringVar(&flags.dsn, "dsn", "", "Connection DSN for the EXPLAIN lookup")
	cmd.Flags().StringVar(&flags.sql, "sql", "", "SQL query text to analyze")
	cmd.Flags().Float64Var(&flags.elapsed, "elapsed", 0, "Observed execution time in seconds")
	_ = cmd.MarkFlagRequired("sql")
	_ = cmd.MarkFlagRequired("dsn")
	return cmd
}

func runProfile(flags *profileFlags) error {
	cfg, err := connconfig.ParseDSN(flags.dsn)
	if err != nil {
		return err
	}

	db, err := connconfig.Open(cfg)
	if err != nil {
		return fmt.Errorf("opening connection: %w", err)
	}
	defer db.Close()

	explain, err := explainFor(cfg.Dialect)
	if err != nil {
		return err
	}

	p := profiler.New()
	ctx := context.Background()
	analysis := p.Analyze(ctx, db, cfg.Dialect, flags.sql, flags.elapsed, explain)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(analysis)
}

func explainFor(dialect dialectkind.Dialect) (profiler.ExplainFn, error) {
	switch dialect {
	case dialectkind.MySQL:
		return profiler.MySQLExplain, nil
	case dialectkind.SQLite:
		return profiler.SQLiteExplain, nil
	case dialectkind.PostgreSQL:
		return profiler.PostgreSQLExplain, nil
	default:
		return nil, fmt.Errorf("no EXPLAIN adapter for dialect %q", dialect)
	}
}

func transformCmd() *cobra.Command {
	flags := &transformFlags{}
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Rewrite a table definition from one dialect to another",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTransform(flags)
		},
	}
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Path to the TOML schema file")
	cmd.Flags().StringVar(&flags.from, "from", "", "Source dialect")
	cmd.Flags().StringVar(&flags.to, "to", "", "Target dialect")
	cmd.Flags().StringVar(&flags.table, "table", "", "Table name to transform")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func runTransform(flags *transformFlags) error {
	db, err := schemaconfig.NewParser().ParseFile(flags.file)
	if err != nil {
		return fmt.Errorf("parsing schema: %w", err)
	}

	table := db.FindTable(flags.table)
	if table == nil {
		return fmt.Errorf("table %q not found in %s", flags.table, flags.file)
	}

	from, err := dialectkind.Parse(flags.from)
	if err != nil {
		return err
	}
	to, err := dialectkind.Parse(flags.to)
	if err != nil {
		return err
	}

	result, err := transform.Transform(table, schema.Dialect(from), schema.Dialect(to))
	if err != nil {
		return err
	}

	platform := transform.PlatformFor(schema.Dialect(to))
	fmt.Println(renderCreateTable(result.Table, platform))

	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s: %s\n", w.Column, w.Message)
	}
	for _, a := range result.PostActions {
		fmt.Printf("-- %s\n%s;\n", a.Description, a.SQL)
	}
	if result.NeedsUpdateTrigger {
		fmt.Fprintf(os.Stderr, "note: columns %v need an application-level or trigger-based ON UPDATE CURRENT_TIMESTAMP equivalent\n", result.UpdateTriggerColumns)
	}
	return nil
}
