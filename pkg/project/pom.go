package project

import (
	"encoding/xml"
	"strings"

	"github.com/matzehuels/aarunpack/pkg/repository"
)

const pomNamespace = "http://maven.apache.org/POM/4.0.0"

type pomProject struct {
	XMLName              xml.Name          `xml:"project"`
	Xmlns                string            `xml:"xmlns,attr,omitempty"`
	ModelVersion         string            `xml:"modelVersion,omitempty"`
	Parent               *pomParent        `xml:"parent,omitempty"`
	GroupID              string            `xml:"groupId,omitempty"`
	ArtifactID           string            `xml:"artifactId"`
	Version              string            `xml:"version,omitempty"`
	Packaging            string            `xml:"packaging,omitempty"`
	Name                 string            `xml:"name,omitempty"`
	Properties           *pomProperties    `xml:"properties,omitempty"`
	DependencyManagement *pomDepManagement `xml:"dependencyManagement,omitempty"`
	Dependencies         []pomDependency   `xml:"dependencies>dependency,omitempty"`
	Repositories         []pomRepository   `xml:"repositories>repository,omitempty"`
	PluginRepositories   []pomRepository   `xml:"pluginRepositories>pluginRepository,omitempty"`
	Build                *pomBuild         `xml:"build,omitempty"`
}

type pomParent struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

type pomProperties struct {
	Entries []pomProperty `xml:",any"`
}

type pomProperty struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type pomDepManagement struct {
	Dependencies []pomDependency `xml:"dependencies>dependency"`
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version,omitempty"`
	Classifier string `xml:"classifier,omitempty"`
	Type       string `xml:"type,omitempty"`
	Scope      string `xml:"scope,omitempty"`
	SystemPath string `xml:"systemPath,omitempty"`
	Optional   string `xml:"optional,omitempty"`
}

type pomRepository struct {
	ID        string     `xml:"id"`
	Name      string     `xml:"name,omitempty"`
	URL       string     `xml:"url"`
	Layout    string     `xml:"layout,omitempty"`
	Releases  *pomPolicy `xml:"releases,omitempty"`
	Snapshots *pomPolicy `xml:"snapshots,omitempty"`
}

type pomPolicy struct {
	Enabled        string `xml:"enabled,omitempty"`
	UpdatePolicy   string `xml:"updatePolicy,omitempty"`
	ChecksumPolicy string `xml:"checksumPolicy,omitempty"`
}

type pomBuild struct {
	Directory string `xml:"directory,omitempty"`
}

func (r pomRepository) raw() repository.Raw {
	return repository.Raw{
		ID:        strings.TrimSpace(r.ID),
		Name:      strings.TrimSpace(r.Name),
		URL:       strings.TrimSpace(r.URL),
		Layout:    strings.TrimSpace(r.Layout),
		Releases:  r.Releases.raw(),
		Snapshots: r.Snapshots.raw(),
	}
}

func (p *pomPolicy) raw() *repository.RawPolicy {
	if p == nil {
		return nil
	}
	return &repository.RawPolicy{
		Enabled:        p.Enabled,
		UpdatePolicy:   p.UpdatePolicy,
		ChecksumPolicy: p.ChecksumPolicy,
	}
}

func (d pomDependency) dependency() Dependency {
	return Dependency{
		GroupID:    strings.TrimSpace(d.GroupID),
		ArtifactID: strings.TrimSpace(d.ArtifactID),
		Version:    strings.TrimSpace(d.Version),
		Classifier: strings.TrimSpace(d.Classifier),
		Type:       strings.TrimSpace(d.Type),
		Scope:      strings.TrimSpace(d.Scope),
		SystemPath: strings.TrimSpace(d.SystemPath),
		Optional:   strings.EqualFold(strings.TrimSpace(d.Optional), "true"),
	}
}

func fromDependency(d Dependency) pomDependency {
	out := pomDependency{
		GroupID:    d.GroupID,
		ArtifactID: d.ArtifactID,
		Version:    d.Version,
		Classifier: d.Classifier,
		Type:       d.Type,
		Scope:      d.Scope,
		SystemPath: d.SystemPath,
	}
	if d.Optional {
		out.Optional = "true"
	}
	return out
}
