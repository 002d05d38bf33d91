package parser

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/KaramelBytes/catprofile/internal/dataset"
)

// sqlDrivers maps user-facing driver names onto database/sql driver names.
var sqlDrivers = map[string]string{
	"sqlite":     "sqlite",
	"postgres":   "pgx",
	"postgresql": "pgx",
	"sqlserver":  "sqlserver",
	"mssql":      "sqlserver",
}

// OpenSQL opens and pings a database using one of the supported drivers.
func OpenSQL(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	name, ok := sqlDrivers[strings.ToLower(strings.TrimSpace(driver))]
	if !ok {
		return nil, fmt.Errorf("%w: sql driver %q (use sqlite, postgres or sqlserver)", ErrUnsupported, driver)
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// SelectQuery returns query when set, otherwise a SELECT * over table.
func SelectQuery(table, query string) (string, error) {
	if strings.TrimSpace(query) != "" {
		return query, nil
	}
	if strings.TrimSpace(table) == "" {
		return "", fmt.Errorf("sql source needs a table or a query")
	}
	return `SELECT * FROM "` + strings.ReplaceAll(table, `"`, `""`) + `"`, nil
}

// LoadSQL runs query and loads the result set. NULL becomes missing; the
// column kind follows the scanned Go types (int64, float64, text).
func LoadSQL(ctx context.Context, db *sql.DB, name, query string) (*dataset.Dataset, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	type colAcc struct {
		cells                            []dataset.Cell
		ints, floats, compound, present int
	}
	accs := make([]*colAcc, len(names))
	for i := range accs {
		accs[i] = &colAcc{}
	}
	vals := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(accs[0].cells)+1, err)
		}
		for i, v := range vals {
			a := accs[i]
			cell, kind := sqlCell(v)
			a.cells = append(a.cells, cell)
			if cell.Missing {
				continue
			}
			a.present++
			switch kind {
			case dataset.KindInt:
				a.ints++
			case dataset.KindFloat:
				a.floats++
			case dataset.KindCompound:
				a.compound++
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	ds := dataset.New(name)
	for i, n := range names {
		a := accs[i]
		kind := dataset.KindString
		switch {
		case a.present == 0:
		case a.compound == a.present:
			kind = dataset.KindCompound
		case a.ints == a.present:
			kind = dataset.KindInt
		case a.ints+a.floats == a.present:
			kind = dataset.KindFloat
		}
		ds.AddColumn(&dataset.Column{Name: n, Kind: kind, Cells: a.cells})
	}
	return ds, nil
}

func sqlCell(v any) (dataset.Cell, dataset.Kind) {
	switch x := v.(type) {
	case nil:
		return dataset.MissingCell(), dataset.KindString
	case int64:
		return dataset.ValueCell(strconv.FormatInt(x, 10)), dataset.KindInt
	case int32:
		return dataset.ValueCell(strconv.FormatInt(int64(x), 10)), dataset.KindInt
	case float64:
		return dataset.ValueCell(strconv.FormatFloat(x, 'f', -1, 64)), dataset.KindFloat
	case float32:
		return dataset.ValueCell(strconv.FormatFloat(float64(x), 'f', -1, 32)), dataset.KindFloat
	case bool:
		return dataset.ValueCell(strconv.FormatBool(x)), dataset.KindString
	case []byte:
		return dataset.ValueCell(string(x)), dataset.KindString
	case string:
		return dataset.ValueCell(x), dataset.KindString
	case time.Time:
		return dataset.ValueCell(x.Format(time.RFC3339)), dataset.KindString
	case []any, map[string]any:
		b, _ := json.Marshal(x)
		return dataset.ValueCell(string(b)), dataset.KindCompound
	default:
		return dataset.ValueCell(fmt.Sprint(x)), dataset.KindString
	}
}

type sqliteParser struct{}

func (sqliteParser) CanParse(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".db") || strings.HasSuffix(name, ".sqlite") || strings.HasSuffix(name, ".sqlite3")
}

func (sqliteParser) Parse(ctx context.Context, path string, opt Options) (*dataset.Dataset, error) {
	query, err := SelectQuery(opt.Table, opt.Query)
	if err != nil {
		return nil, err
	}
	db, err := OpenSQL(ctx, "sqlite", path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	name := DatasetName(path)
	if opt.Table != "" {
		name = opt.Table
	}
	return LoadSQL(ctx, db, name, query)
}
