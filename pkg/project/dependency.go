package project

import (
	"strings"

	"github.com/matzehuels/aarunpack/pkg/coord"
)

// Dependency is one declaration of the project.
type Dependency struct {
	GroupID    string `json:"group_id"`
	ArtifactID string `json:"artifact_id"`
	Version    string `json:"version"`
	Classifier string `json:"classifier,omitempty"`
	Type       string `json:"type,omitempty"`
	Scope      string `json:"scope,omitempty"`
	SystemPath string `json:"system_path,omitempty"`
	Optional   bool   `json:"optional,omitempty"`
}

// IsAAR reports whether the declaration refers to an Android archive.
func (d Dependency) IsAAR() bool {
	return strings.EqualFold(d.Type, coord.ExtAAR)
}

// IsSystem reports whether the declaration points at a local file.
func (d Dependency) IsSystem() bool {
	return strings.EqualFold(d.Scope, ScopeSystem)
}

// Coordinate returns the declaration as a coordinate. The extension is
// the declared type, "jar" when unset.
func (d Dependency) Coordinate() coord.Coordinate {
	ext := d.Type
	if ext == "" {
		ext = coord.ExtJAR
	}
	return coord.Coordinate{
		GroupID:    d.GroupID,
		ArtifactID: d.ArtifactID,
		Classifier: d.Classifier,
		Extension:  ext,
		Version:    d.Version,
	}
}

// String returns groupId:artifactId[:classifier]:version.
func (d Dependency) String() string {
	return d.Coordinate().String()
}
