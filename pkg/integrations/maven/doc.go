// Package maven resolves artifacts from Maven-layout repositories.
//
// # Overview
//
// [Client] implements the resolve.Fetcher contract. Artifacts are looked up
// in the local repository first and then downloaded from the remote
// repositories in the order given, first hit wins:
//
//	client := maven.NewClient("", 30*time.Second, logger)
//	path, err := client.Fetch(ctx, coordinate, repos)
//
// # Repository Policies
//
// Each repository carries one policy per channel (releases, snapshots):
//
//   - A disabled channel skips the repository for that kind of version
//   - The update policy decides when a local SNAPSHOT is fetched again
//   - The checksum policy (fail, warn, ignore) applies to the .sha1 sidecar
//
// Only the "default" layout is supported; repositories declaring another
// layout are skipped.
//
// # URL Schemes
//
// http and https repositories go through [integrations.Client], with retry
// and per-request timeouts. file repositories are read directly from disk.
//
// [integrations.Client]: github.com/matzehuels/aarunpack/pkg/integrations.Client
package maven
