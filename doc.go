// Package migrate implements the bootstrap controller (spec §4.7, C8): the
// public Engine facade that composes the directory scanner, overlay
// resolver, transition planner, bookkeeping store, and executor into the
// "full_migrate"/"full_delete" self-hosting dance described by spec §4.7,
// and the programmatic surface of spec §6.3.
//
// A typical caller:
//
//	db, _ := sql.Open("pgx", dsn)
//	eng, err := migrate.New(db,
//		migrate.WithBasePath("/var/lib/myapp/schemas"),
//		migrate.WithDesiredVersionSource("github.com/me/myapp"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := eng.FullMigrate(ctx); err != nil {
//		log.Fatal(err)
//	}
package migrate
