package migrate

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"

	"go.hackfix.me/schemamigrate/driver"
	"go.hackfix.me/schemamigrate/driver/postgres"
	"go.hackfix.me/schemamigrate/driver/sqlite"
)

// detectDriver implements spec §6.3's "driver-name is inferred from the
// handle if omitted": it inspects the concrete database/sql.Driver behind
// db and matches it against the module's known driver.Driver adapters by
// package path and type name, since database/sql exposes no driver-name
// string of its own.
func detectDriver(db *sql.DB) (driver.Driver, error) {
	drv := db.Driver()
	name := fmt.Sprintf("%T", drv)

	// %T carries only the package's last path element (pgx's adapter prints
	// as "*stdlib.Driver"), so match against the full package path.
	t := reflect.TypeOf(drv)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	ident := t.PkgPath() + "." + t.Name()

	switch {
	case strings.Contains(ident, "sqlite"):
		return sqlite.New(), nil
	case strings.Contains(ident, "pgx"):
		return postgres.NewPGX(), nil
	case strings.Contains(ident, "pq."):
		return postgres.NewPQ(), nil
	default:
		return nil, fmt.Errorf("cannot infer driver from handle of type %s: set WithDriver explicitly", name)
	}
}
