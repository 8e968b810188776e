package project

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	errs "github.com/matzehuels/aarunpack/pkg/errors"
	"github.com/matzehuels/aarunpack/pkg/repository"
)

const samplePOM = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <groupId>com.example</groupId>
  <artifactId>app</artifactId>
  <version>1.0.0</version>
  <packaging>apk</packaging>
  <properties>
    <support.version>28.0.0</support.version>
  </properties>
  <dependencyManagement>
    <dependencies>
      <dependency>
        <groupId>com.example</groupId>
        <artifactId>managed</artifactId>
        <version>3.1</version>
      </dependency>
    </dependencies>
  </dependencyManagement>
  <dependencies>
    <dependency>
      <groupId>com.android.support</groupId>
      <artifactId>appcompat-v7</artifactId>
      <version>${support.version}</version>
      <type>aar</type>
    </dependency>
    <dependency>
      <groupId>junit</groupId>
      <artifactId>junit</artifactId>
      <version>4.13</version>
      <scope>test</scope>
    </dependency>
    <dependency>
      <groupId>com.example</groupId>
      <artifactId>managed</artifactId>
      <type>AAR</type>
      <classifier>debug</classifier>
    </dependency>
  </dependencies>
  <repositories>
    <repository>
      <id>google</id>
      <url>https://maven.google.com/</url>
      <snapshots><enabled>false</enabled></snapshots>
    </repository>
  </repositories>
  <pluginRepositories>
    <pluginRepository>
      <id>plugins</id>
      <url>https://plugins.example.com</url>
    </pluginRepository>
  </pluginRepositories>
  <build>
    <directory>${project.basedir}/out</directory>
  </build>
</project>`

func parseSample(t *testing.T) *Project {
	t.Helper()
	p, err := Parse(strings.NewReader(samplePOM), "/work/app")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return p
}

func TestParse(t *testing.T) {
	p := parseSample(t)

	if p.ID() != "com.example:app:1.0.0" {
		t.Errorf("ID() = %q", p.ID())
	}
	if p.Packaging != "apk" {
		t.Errorf("Packaging = %q", p.Packaging)
	}
	if p.BuildDir != filepath.Join("/work/app", "out") {
		t.Errorf("BuildDir = %q", p.BuildDir)
	}

	deps := p.Dependencies()
	if len(deps) != 3 {
		t.Fatalf("len(deps) = %d, want 3", len(deps))
	}
	if deps[0].Version != "28.0.0" {
		t.Errorf("property not interpolated: %q", deps[0].Version)
	}
	if !deps[0].IsAAR() || deps[1].IsAAR() || !deps[2].IsAAR() {
		t.Error("IsAAR() should match type case-insensitively")
	}
	if deps[2].Version != "3.1" {
		t.Errorf("managed version = %q, want 3.1", deps[2].Version)
	}
	if deps[2].String() != "com.example:managed:debug:3.1" {
		t.Errorf("String() = %q", deps[2].String())
	}
}

func TestParse_DefaultBuildDir(t *testing.T) {
	p, err := Parse(strings.NewReader(`<project><artifactId>x</artifactId></project>`), "/work/x")
	if err != nil {
		t.Fatal(err)
	}
	if p.BuildDir != filepath.Join("/work/x", "target") {
		t.Errorf("BuildDir = %q", p.BuildDir)
	}
	if p.Packaging != "jar" {
		t.Errorf("Packaging = %q, want jar", p.Packaging)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		pom  string
	}{
		{"not xml", "{"},
		{"no artifactId", "<project><groupId>g</groupId></project>"},
		{"dependency without artifactId", "<project><artifactId>x</artifactId><dependencies><dependency><groupId>g</groupId></dependency></dependencies></project>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.pom), ".")
			if !errs.Is(err, errs.ErrCodeInvalidManifest) {
				t.Errorf("error = %v, want INVALID_MANIFEST", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pom.xml")
	if err := os.WriteFile(path, []byte(samplePOM), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if p.Path != path || p.Dir() != dir {
		t.Errorf("Path = %q, Dir = %q", p.Path, p.Dir())
	}
	if p.BuildDir != filepath.Join(dir, "out") {
		t.Errorf("BuildDir = %q", p.BuildDir)
	}

	if _, err := Load(filepath.Join(dir, "missing.xml")); !errs.Is(err, errs.ErrCodeInvalidManifest) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestRepositories(t *testing.T) {
	p := parseSample(t)

	scoped := p.ScopedRepositories()
	if len(scoped) != 2 || scoped[0].ID != "plugins" || scoped[1] != repository.Central {
		t.Errorf("ScopedRepositories() = %+v", scoped)
	}

	p.IncludeCentral = false
	if got := p.ScopedRepositories(); len(got) != 1 {
		t.Errorf("without central: %+v", got)
	}

	declared := p.DeclaredRepositories()
	if len(declared) != 1 || declared[0].ID != "google" {
		t.Fatalf("DeclaredRepositories() = %+v", declared)
	}
	if declared[0].Snapshots == nil || declared[0].Snapshots.Enabled != "false" {
		t.Errorf("snapshot policy not carried: %+v", declared[0].Snapshots)
	}
	if declared[0].Releases != nil {
		t.Error("undeclared releases policy should stay nil")
	}
}

func TestMutationAndClasspath(t *testing.T) {
	p := parseSample(t)
	if len(p.Classpath()) != 0 {
		t.Fatal("no system declarations yet")
	}

	d := p.Dependencies()[0]
	d.Scope, d.Type, d.SystemPath = ScopeSystem, "jar", "/cache/a/classes.jar"
	if err := p.Replace(0, d); err != nil {
		t.Fatal(err)
	}
	p.Add(Dependency{GroupID: "g", ArtifactID: "b", Version: "1", Scope: ScopeSystem, Type: "jar", SystemPath: "/cache/b/classes.jar"})

	// The classpath is stale until invalidated.
	if len(p.Classpath()) != 0 {
		t.Error("Classpath() should be cached until Invalidate()")
	}
	p.Invalidate()
	cp := p.Classpath()
	if len(cp) != 2 || cp[0] != "/cache/a/classes.jar" || cp[1] != "/cache/b/classes.jar" {
		t.Errorf("Classpath() = %v", cp)
	}
	if p.Reloads() != 1 {
		t.Errorf("Reloads() = %d, want 1", p.Reloads())
	}

	if err := p.Replace(10, d); !errs.Is(err, errs.ErrCodeInternal) {
		t.Errorf("out of range Replace() error = %v", err)
	}
}

func TestWriteEffective(t *testing.T) {
	p := parseSample(t)
	d := p.Dependencies()[0]
	d.Scope, d.Type, d.SystemPath = ScopeSystem, "jar", "/cache/a/classes.jar"
	_ = p.Replace(0, d)

	var buf bytes.Buffer
	if err := p.WriteEffective(&buf); err != nil {
		t.Fatalf("WriteEffective() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`<project xmlns="http://maven.apache.org/POM/4.0.0">`,
		"<systemPath>/cache/a/classes.jar</systemPath>",
		"<support.version>28.0.0</support.version>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "xmlns=") != 1 {
		t.Errorf("namespace should be declared once:\n%s", out)
	}

	// The output parses back.
	again, err := Parse(strings.NewReader(out), "/work/app")
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if got := again.Dependencies()[0]; got.SystemPath != "/cache/a/classes.jar" || !got.IsSystem() {
		t.Errorf("re-parsed dependency = %+v", got)
	}
}
