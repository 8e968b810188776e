package coord

import (
	"strings"

	errs "github.com/matzehuels/aarunpack/pkg/errors"
)

const (
	// ExtAAR is the extension of Android archive libraries. Every archive
	// coordinate is resolved with this extension regardless of its input.
	ExtAAR = "aar"

	// ExtJAR is the extension of plain Java archives (payloads and sources).
	ExtJAR = "jar"

	// ClassifierSources marks the companion source archive of an artifact.
	ClassifierSources = "sources"

	// Grammar is the accepted coordinate syntax, quoted in parse errors.
	Grammar = "<groupId>:<artifactId>[:<classifier>]:<version>"
)

// Coordinate identifies an artifact in a Maven repository.
//
// Coordinate is a comparable value type: two coordinates are equal when all
// five fields are equal, so it can be used directly as a map key.
type Coordinate struct {
	GroupID    string // e.g. "androidx.graphics"
	ArtifactID string // e.g. "graphics-core"
	Classifier string // optional variant, e.g. "sources" or "debug"
	Extension  string // file extension, "aar" for archives
	Version    string // e.g. "1.0.2"
}

// Parse parses a coordinate string of the form
// groupId:artifactId[:classifier]:version.
//
// The string must contain exactly three or four non-empty segments. The
// returned coordinate always carries the archive extension [ExtAAR].
// Errors carry the PARSE_ERROR code and quote the expected grammar.
func Parse(s string) (Coordinate, error) {
	if !strings.Contains(s, ":") {
		return Coordinate{}, errs.New(errs.ErrCodeParse,
			"invalid coordinate %q: missing ':' character (expected %s)", s, Grammar)
	}

	parts := strings.Split(s, ":")
	var c Coordinate
	switch len(parts) {
	case 3:
		c = Coordinate{GroupID: parts[0], ArtifactID: parts[1], Version: parts[2]}
	case 4:
		if parts[2] == "" {
			return Coordinate{}, errs.New(errs.ErrCodeParse,
				"invalid coordinate %q: empty classifier (expected %s)", s, Grammar)
		}
		c = Coordinate{GroupID: parts[0], ArtifactID: parts[1], Classifier: parts[2], Version: parts[3]}
	default:
		return Coordinate{}, errs.New(errs.ErrCodeParse,
			"invalid coordinate %q: %d segments (expected %s)", s, len(parts), Grammar)
	}
	c.Extension = ExtAAR

	if err := c.Validate(); err != nil {
		return Coordinate{}, errs.Wrap(errs.ErrCodeParse, err,
			"invalid coordinate %q (expected %s)", s, Grammar)
	}
	return c, nil
}

// MustParse is like [Parse] but panics on error. Intended for tests and
// package-level fixtures.
func MustParse(s string) Coordinate {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Validate checks that the identity segments are present and safe to use
// as path components. The classifier is only checked when set.
func (c Coordinate) Validate() error {
	if err := errs.ValidateSegment("groupId", c.GroupID); err != nil {
		return err
	}
	if err := errs.ValidateSegment("artifactId", c.ArtifactID); err != nil {
		return err
	}
	if c.Classifier != "" {
		if err := errs.ValidateSegment("classifier", c.Classifier); err != nil {
			return err
		}
	}
	return errs.ValidateSegment("version", c.Version)
}

// String formats the coordinate in the parse grammar. The extension is not
// part of the grammar and is omitted, so Parse(c.String()) == c for every
// archive coordinate.
func (c Coordinate) String() string {
	var sb strings.Builder
	sb.WriteString(c.GroupID)
	sb.WriteByte(':')
	sb.WriteString(c.ArtifactID)
	if c.Classifier != "" {
		sb.WriteByte(':')
		sb.WriteString(c.Classifier)
	}
	sb.WriteByte(':')
	sb.WriteString(c.Version)
	return sb.String()
}

// Key is the fully qualified, filesystem-safe name of the coordinate:
// groupId-artifactId[-classifier]-version. It names the extraction
// directory of an archive.
func (c Coordinate) Key() string {
	parts := []string{c.GroupID, c.ArtifactID}
	if c.Classifier != "" {
		parts = append(parts, c.Classifier)
	}
	parts = append(parts, c.Version)
	return strings.Join(parts, "-")
}

// WithExtension returns a copy of c with the extension replaced.
func (c Coordinate) WithExtension(ext string) Coordinate {
	c.Extension = ext
	return c
}

// Sources returns the companion sources coordinate of c: same group,
// artifact and version, classifier "sources", extension "jar".
func (c Coordinate) Sources() Coordinate {
	return Coordinate{
		GroupID:    c.GroupID,
		ArtifactID: c.ArtifactID,
		Classifier: ClassifierSources,
		Extension:  ExtJAR,
		Version:    c.Version,
	}
}

// IsSources reports whether c is itself a sources artifact.
func (c Coordinate) IsSources() bool {
	return strings.EqualFold(c.Classifier, ClassifierSources)
}

// IsSnapshot reports whether the version is a SNAPSHOT version.
func (c Coordinate) IsSnapshot() bool {
	return strings.HasSuffix(c.Version, "-SNAPSHOT")
}

// FileName is the repository file name of the artifact:
// artifactId-version[-classifier].extension.
func (c Coordinate) FileName() string {
	name := c.ArtifactID + "-" + c.Version
	if c.Classifier != "" {
		name += "-" + c.Classifier
	}
	if c.Extension != "" {
		name += "." + c.Extension
	}
	return name
}

// RepositoryPath is the slash-separated path of the artifact relative to a
// repository root in the default Maven layout:
// group/path/artifactId/version/fileName.
func (c Coordinate) RepositoryPath() string {
	return strings.Join([]string{
		strings.ReplaceAll(c.GroupID, ".", "/"),
		c.ArtifactID,
		c.Version,
		c.FileName(),
	}, "/")
}
