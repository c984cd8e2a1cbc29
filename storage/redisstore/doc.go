// Package redisstore provides a Redis-backed session store.
//
// Records are serialized as JSON and written with a native Redis TTL, so
// expired sessions are evicted by the server and the store needs no sweep
// goroutine. Create uses SET NX to detect ID collisions atomically.
//
// Basic usage:
//
//	var cfg redisstore.Config
//	config.MustLoad(&cfg)
//
//	client, err := redisstore.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	store := redisstore.New(client, redisstore.WithKeyPrefix(cfg.KeyPrefix))
//	manager, err := session.New(store)
package redisstore
