// Package pkg provides the core libraries of aarunpack.
//
// # Overview
//
// aarunpack puts Android archive (AAR) libraries on a plain Maven classpath.
// Each archive is resolved from the configured repositories, its classes.jar
// is extracted once into the build directory, and the project's declaration
// is rewritten as a system-scoped jar pointing at the extracted payload.
//
// # Architecture
//
//	pom.xml ([project])
//	     ↓
//	[repository] merge scoped and declared repositories
//	     ↓
//	[resolve] archive + best-effort sources companion ([integrations/maven])
//	     ↓
//	[extract] classes.jar into <root>/<g>-<a>[-<c>]-<v>
//	     ↓
//	[rewrite] system-scope declarations
//	     ↓
//	[session] change log + reload flag
//
// [pipeline] runs these stages for one project with a bounded worker pool.
//
// # Main Packages
//
// [coord] - Coordinate parsing and formatting (g:a[:c]:v) and repository paths.
//
// [repository] - Repository descriptors, update and checksum policies, and
// the two-phase merge.
//
// [integrations] - HTTP client with retry used for repository transfers;
// [integrations/maven] implements local-first artifact resolution.
//
// [cache] - File, Redis and null caches. The resolver remembers missing
// sources jars here.
//
// [session] - Published run outputs, stored as JSON files or in MongoDB.
//
// [config] - aarunpack.toml loading.
//
// [errors] - Structured error codes shared by all packages.
//
// [observability] - Optional hooks for metrics and tracing.
//
// [coord]: https://pkg.go.dev/github.com/matzehuels/aarunpack/pkg/coord
// [repository]: https://pkg.go.dev/github.com/matzehuels/aarunpack/pkg/repository
// [project]: https://pkg.go.dev/github.com/matzehuels/aarunpack/pkg/project
// [resolve]: https://pkg.go.dev/github.com/matzehuels/aarunpack/pkg/resolve
// [extract]: https://pkg.go.dev/github.com/matzehuels/aarunpack/pkg/extract
// [rewrite]: https://pkg.go.dev/github.com/matzehuels/aarunpack/pkg/rewrite
// [session]: https://pkg.go.dev/github.com/matzehuels/aarunpack/pkg/session
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/aarunpack/pkg/pipeline
// [integrations]: https://pkg.go.dev/github.com/matzehuels/aarunpack/pkg/integrations
// [integrations/maven]: https://pkg.go.dev/github.com/matzehuels/aarunpack/pkg/integrations/maven
// [cache]: https://pkg.go.dev/github.com/matzehuels/aarunpack/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/aarunpack/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/aarunpack/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/aarunpack/pkg/observability
package pkg
