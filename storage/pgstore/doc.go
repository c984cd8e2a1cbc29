// Package pgstore provides a PostgreSQL-backed session store using pgx.
//
// Records live in a single table, one row per session, with the expiry in
// its own indexed column. Reads filter expired rows in the query, so
// correctness never depends on the background sweep; DeleteExpired only
// reclaims disk space.
//
// Basic usage:
//
//	var cfg pgstore.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pgstore.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//
//	store := pgstore.New(pool, pgstore.WithTable(cfg.SessionsTable))
//	if err := store.Migrate(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	go session.ContinuouslyDeleteExpired(ctx, store, 10*time.Minute, logger)
//
//	manager, err := session.New(store)
package pgstore
