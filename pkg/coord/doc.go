// Package coord models Maven artifact coordinates.
//
// # Grammar
//
// Archives are named on the command line and in configuration with
//
//	groupId:artifactId[:classifier]:version
//
// Exactly three or four colon-separated, non-empty segments are accepted.
// The archive extension ("aar") is always substituted, whatever extension
// the string might imply.
//
//	c, err := coord.Parse("androidx.graphics:graphics-core:1.0.2")
//	c.Key()            // "androidx.graphics-graphics-core-1.0.2"
//	c.RepositoryPath() // "androidx/graphics/graphics-core/1.0.2/graphics-core-1.0.2.aar"
//
// # Companion Sources
//
// [Coordinate.Sources] derives the "sources" jar that usually accompanies an
// archive in the same repository directory.
package coord
