// Package mongostore provides a MongoDB-backed session store.
//
// Each session is one document keyed by its ID in _id. A TTL index on
// expires_at lets MongoDB reclaim expired documents; reads filter on
// expiry anyway because the TTL monitor only runs about once a minute.
//
// Basic usage:
//
//	var cfg mongostore.Config
//	config.MustLoad(&cfg)
//
//	client, err := mongostore.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Disconnect(ctx)
//
//	store := mongostore.New(client.Database(cfg.Database).Collection(cfg.Collection))
//	if err := store.EnsureIndexes(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	manager, err := session.New(store)
package mongostore
