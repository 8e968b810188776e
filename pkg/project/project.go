// Package project models the consuming build: a Maven pom.xml whose
// dependency declarations are rewritten to point at extracted payloads.
//
// A [Project] is loaded once per run. The unpack pipeline reads its
// repositories and declarations, replaces or appends declarations, and
// calls [Project.Invalidate] when the resolved classpath must be
// recomputed.
package project

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	errs "github.com/matzehuels/aarunpack/pkg/errors"
	"github.com/matzehuels/aarunpack/pkg/repository"
)

// DefaultBuildDir is the build directory name used when the POM does not
// declare one.
const DefaultBuildDir = "target"

// ScopeSystem is the scope of declarations that point at a local file.
const ScopeSystem = "system"

// Project is a loaded pom.xml. All methods are safe for concurrent use.
type Project struct {
	// Path is the absolute path of the pom.xml, empty for parsed input.
	Path string

	GroupID    string
	ArtifactID string
	Version    string
	Packaging  string

	// BuildDir is the absolute build output directory.
	BuildDir string

	// IncludeCentral appends Central to the scoped repositories.
	IncludeCentral bool

	// Central is the repository standing in for Maven Central, usually
	// [repository.Central] or a mirror of it.
	Central repository.Descriptor

	mu        sync.Mutex
	pom       *pomProject
	props     map[string]string
	deps      []Dependency
	declared  []repository.Raw
	plugins   []repository.Raw
	classpath []string
	resolved  bool
	reloads   int
}

// Load reads and parses the pom.xml at path.
func Load(path string) (*Project, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidManifest, err, "pom %s", path)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidManifest, err, "unable to read %s", abs)
	}
	p, err := Parse(bytes.NewReader(data), filepath.Dir(abs))
	if err != nil {
		return nil, err
	}
	p.Path = abs
	return p, nil
}

// Parse decodes a POM from r. dir is the project base directory used to
// resolve the build directory.
func Parse(r io.Reader, dir string) (*Project, error) {
	var pom pomProject
	if err := xml.NewDecoder(r).Decode(&pom); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidManifest, err, "unable to parse pom")
	}
	if strings.TrimSpace(pom.ArtifactID) == "" {
		return nil, errs.New(errs.ErrCodeInvalidManifest, "pom has no artifactId")
	}

	p := &Project{
		pom:            &pom,
		GroupID:        strings.TrimSpace(pom.GroupID),
		ArtifactID:     strings.TrimSpace(pom.ArtifactID),
		Version:        strings.TrimSpace(pom.Version),
		Packaging:      strings.TrimSpace(pom.Packaging),
		IncludeCentral: true,
		Central:        repository.Central,
	}
	if pom.Parent != nil {
		if p.GroupID == "" {
			p.GroupID = strings.TrimSpace(pom.Parent.GroupID)
		}
		if p.Version == "" {
			p.Version = strings.TrimSpace(pom.Parent.Version)
		}
	}
	if p.Packaging == "" {
		p.Packaging = "jar"
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidManifest, err, "project directory %s", dir)
	}
	p.props = p.properties(absDir)

	buildDir := DefaultBuildDir
	if pom.Build != nil && strings.TrimSpace(pom.Build.Directory) != "" {
		buildDir = p.interpolate(strings.TrimSpace(pom.Build.Directory))
	}
	if !filepath.IsAbs(buildDir) {
		buildDir = filepath.Join(absDir, buildDir)
	}
	p.BuildDir = filepath.Clean(buildDir)
	p.props["project.build.directory"] = p.BuildDir

	managed := make(map[string]string)
	if pom.DependencyManagement != nil {
		for _, d := range pom.DependencyManagement.Dependencies {
			key := p.interpolate(strings.TrimSpace(d.GroupID)) + ":" + p.interpolate(strings.TrimSpace(d.ArtifactID))
			managed[key] = p.interpolate(strings.TrimSpace(d.Version))
		}
	}
	for i, pd := range pom.Dependencies {
		d := pd.dependency()
		d.GroupID = p.interpolate(d.GroupID)
		d.ArtifactID = p.interpolate(d.ArtifactID)
		d.Version = p.interpolate(d.Version)
		d.Classifier = p.interpolate(d.Classifier)
		d.SystemPath = p.interpolate(d.SystemPath)
		if d.Version == "" {
			d.Version = managed[d.GroupID+":"+d.ArtifactID]
		}
		if d.GroupID == "" || d.ArtifactID == "" {
			return nil, errs.New(errs.ErrCodeInvalidManifest, "dependency #%d has no groupId or artifactId", i+1)
		}
		p.deps = append(p.deps, d)
	}
	for _, r := range pom.Repositories {
		raw := r.raw()
		raw.URL = p.interpolate(raw.URL)
		p.declared = append(p.declared, raw)
	}
	for _, r := range pom.PluginRepositories {
		raw := r.raw()
		raw.URL = p.interpolate(raw.URL)
		p.plugins = append(p.plugins, raw)
	}
	return p, nil
}

func (p *Project) properties(dir string) map[string]string {
	props := map[string]string{
		"basedir":            dir,
		"project.basedir":    dir,
		"project.groupId":    p.GroupID,
		"project.artifactId": p.ArtifactID,
		"project.version":    p.Version,
	}
	if p.pom.Properties != nil {
		for _, e := range p.pom.Properties.Entries {
			props[e.XMLName.Local] = strings.TrimSpace(e.Value)
		}
	}
	return props
}

var propertyRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// interpolate replaces ${name} references with project properties.
// Unknown references are left untouched.
func (p *Project) interpolate(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	for range 8 {
		next := propertyRef.ReplaceAllStringFunc(s, func(m string) string {
			if v, ok := p.props[m[2:len(m)-1]]; ok {
				return v
			}
			return m
		})
		if next == s {
			break
		}
		s = next
	}
	return s
}

// Dir returns the project base directory.
func (p *Project) Dir() string {
	return p.props["basedir"]
}

// ID returns groupId:artifactId:version.
func (p *Project) ID() string {
	return fmt.Sprintf("%s:%s:%s", p.GroupID, p.ArtifactID, p.Version)
}

// ScopedRepositories returns the repositories available to the unpack
// build step: the plugin repositories followed by Maven Central.
func (p *Project) ScopedRepositories() []repository.Descriptor {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]repository.Descriptor, 0, len(p.plugins)+1)
	for _, r := range p.plugins {
		out = append(out, repository.Normalize(r))
	}
	if p.IncludeCentral {
		out = append(out, p.Central)
	}
	return out
}

// DeclaredRepositories returns the project repositories as declared.
func (p *Project) DeclaredRepositories() []repository.Raw {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]repository.Raw(nil), p.declared...)
}

// Dependencies returns a copy of the current declarations in order.
func (p *Project) Dependencies() []Dependency {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Dependency(nil), p.deps...)
}

// Replace swaps the declaration at index i.
func (p *Project) Replace(i int, d Dependency) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.deps) {
		return errs.New(errs.ErrCodeInternal, "dependency index %d out of range [0,%d)", i, len(p.deps))
	}
	p.deps[i] = d
	return nil
}

// Add appends a declaration.
func (p *Project) Add(d Dependency) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deps = append(p.deps, d)
}

// Invalidate drops the resolved classpath so the next call to
// [Project.Classpath] recomputes it.
func (p *Project) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resolved = false
	p.classpath = nil
	p.reloads++
}

// Reloads returns how many times the project was invalidated.
func (p *Project) Reloads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reloads
}

// Classpath returns the local files referenced by system-scoped
// declarations, in declaration order.
func (p *Project) Classpath() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.resolved {
		p.classpath = p.classpath[:0]
		for _, d := range p.deps {
			if d.IsSystem() && d.SystemPath != "" {
				p.classpath = append(p.classpath, d.SystemPath)
			}
		}
		p.resolved = true
	}
	return append([]string(nil), p.classpath...)
}

// WriteEffective writes the POM with its current declarations.
func (p *Project) WriteEffective(w io.Writer) error {
	p.mu.Lock()
	out := *p.pom
	out.XMLName = xml.Name{Local: "project"}
	out.Xmlns = pomNamespace
	out.Dependencies = make([]pomDependency, len(p.deps))
	for i, d := range p.deps {
		out.Dependencies[i] = fromDependency(d)
	}
	if out.Properties != nil {
		props := &pomProperties{Entries: make([]pomProperty, len(out.Properties.Entries))}
		for i, e := range out.Properties.Entries {
			props.Entries[i] = pomProperty{XMLName: xml.Name{Local: e.XMLName.Local}, Value: e.Value}
		}
		out.Properties = props
	}
	p.mu.Unlock()

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
