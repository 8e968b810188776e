// Package extract unpacks Android archives into a coordinate-keyed cache.
//
// # Layout
//
// Each archive is unpacked once into
//
//	<root>/<groupId>-<artifactId>[-<classifier>]-<version>/
//
// and its compiled payload is expected at classes.jar directly below that
// directory. Coordinates that differ in any field map to different
// directories.
//
// # Idempotence
//
// [Extractor.Extract] follows three rules for the destination:
//
//  1. It is a directory: the archive is not read again (a cache hit),
//     unless ForceRefresh is set, in which case it is rebuilt.
//  2. It is a regular file: a warning is logged, the file is removed and
//     the archive is extracted.
//  3. It does not exist: the archive is extracted.
//
// Extraction writes into a private staging directory under the root and
// renames it into place, so a directory at the final path is always
// complete. Within one process, extractions of the same directory are
// serialized.
//
// # Sources
//
// With CopySources set, a "-sources.jar" file sitting next to the archive
// in the local repository is copied into the extraction directory. A
// missing or uncopyable companion is only logged.
package extract
