// Package catalog holds immutable-per-version tier definitions and the
// quota policy of every feature a tier grants.
//
// The catalog is read-only on the hot path: lookups by slug or by the
// payment provider's product reference never touch storage after the
// initial Load. Seeding and the quota-policy invariant check are setup
// concerns (ValidateTier, SeedMongo).
//
// # Usage
//
//	src := catalog.NewYAMLFileSource("tiers.yaml")
//	svc, err := catalog.NewService(ctx, src)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	tier, err := svc.GetTierByProductRef(ctx, "prod_123")
//
// Sources are pluggable: in-memory for tests, YAML for static catalogs,
// MongoDB for deployments that manage tiers operationally.
package catalog
