// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

// Package testinfra provides container-backed infrastructure for integration
// tests.
//
// It uses testcontainers-go to run the services the alternate backends talk
// to, so the gorm Postgres store and the Redis query cache are tested against
// real servers instead of mocks.
//
// # Postgres
//
//	func TestStore(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostgresContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg)
//
//	    store, err := postgres.New(&config.DatabaseConfig{Driver: "postgres", DSN: pg.DSN})
//	    // ...
//	}
//
// # Redis
//
//	rc, err := testinfra.NewRedisContainer(ctx)
//	// rc.Addr is host:port for go-redis
//
// # Build Tags
//
// Every file carries the integration build tag; run with:
//
//	go test -tags integration ./...
//
// Tests skip when Docker is unavailable.
package testinfra
