// Package redis connects to Redis for the change feed. Connect retries
// until the server answers PING; Healthcheck plugs into the readiness probe.
//
//	client, err := redis.Connect(ctx, cfg)
//	feed := broadcast.NewRedisBroadcaster[engine.Change](client, "featureflux.changes", broadcast.DefaultBufferSize)
package redis
