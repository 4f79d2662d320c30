// Command xsqlgraph runs a joined query and prints one JSON document per
// distinct root entity, with each secondary column group nested under the
// name of its identifier column.
//
//	XSQLGRAPH_DSN=app.db xsqlgraph -split id,line_id \
//	    "SELECT o.id, o.email, l.id AS line_id, l.sku FROM orders o LEFT JOIN lines l ON l.order_id = o.id"
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-mizu/xsqlgraph"
	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "xsqlgraph:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("xsqlgraph", flag.ContinueOnError)
	fs.SetOutput(stderr)
	split := fs.String("split", "", "identifier columns starting each entity group (overrides XSQLGRAPH_SPLIT)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("expected exactly one query argument")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if *split != "" {
		cfg.Split = *split
	}
	log, err := cfg.logger(stderr)
	if err != nil {
		return err
	}
	xsqlgraph.SetLogger(log)

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return fmt.Errorf("open %s db: %w", cfg.Driver, err)
	}
	defer func() { _ = db.Close() }()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s db: %w", cfg.Driver, err)
	}

	roots, err := dump(ctx, db, cfg.Split, fs.Arg(0))
	if err != nil {
		return err
	}
	log.Info("query assembled", slog.Int("roots", len(roots)), slog.String("split", cfg.Split))

	enc := json.NewEncoder(stdout)
	for _, r := range roots {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("write root: %w", err)
		}
	}
	return nil
}

// dump assembles the result of query into Record roots. Every column group
// after the first becomes a []Record stored on its root under the lower-case
// name of the group's identifier column.
func dump(ctx context.Context, q xsqlgraph.Querier, split, query string) (roots []xsqlgraph.Record, err error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	cur, err := xsqlgraph.NewRowsCursor(rows)
	if err != nil {
		return nil, err
	}
	groups, err := xsqlgraph.Partition(cur.Columns(), split)
	if err != nil {
		return nil, err
	}

	opts := []xsqlgraph.Option{xsqlgraph.SplitOn(split)}
	keys := make([]string, 0, len(groups)-1)
	for _, g := range groups[1:] {
		opts = append(opts, xsqlgraph.Include[[]xsqlgraph.Record]())
		keys = append(keys, strings.ToLower(strings.Trim(g.Names[0], "\"`[]")))
	}
	opts = append(opts, xsqlgraph.Relate(func(root xsqlgraph.Record, related ...any) {
		for k, r := range related {
			if rs, ok := r.([]xsqlgraph.Record); ok && rs == nil {
				r = []xsqlgraph.Record{}
			}
			root[keys[k]] = r
		}
	}))
	return xsqlgraph.Assemble[xsqlgraph.Record](cur, xsqlgraph.NewLayout(opts...))
}
