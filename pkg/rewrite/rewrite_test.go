package rewrite

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/aarunpack/pkg/errors"
	"github.com/matzehuels/aarunpack/pkg/extract"
	"github.com/matzehuels/aarunpack/pkg/project"
)

const pom = `<project>
  <groupId>com.example</groupId>
  <artifactId>app</artifactId>
  <version>1.0</version>
  <dependencies>
    <dependency><groupId>com.example</groupId><artifactId>lib-a</artifactId><version>1.0</version><type>aar</type><optional>true</optional></dependency>
    <dependency><groupId>junit</groupId><artifactId>junit</artifactId><version>4.13</version></dependency>
    <dependency><groupId>com.example</groupId><artifactId>lib-b</artifactId><version>2.0</version><classifier>debug</classifier><type>AAR</type></dependency>
  </dependencies>
</project>`

func load(t *testing.T) *project.Project {
	t.Helper()
	p, err := project.Parse(strings.NewReader(pom), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPlan_Automatic(t *testing.T) {
	mode, jobs, err := Plan(load(t), nil)
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if mode != Automatic {
		t.Errorf("mode = %v, want automatic", mode)
	}
	if len(jobs) != 2 {
		t.Fatalf("len(jobs) = %d, want 2", len(jobs))
	}
	if jobs[0].Index != 0 || jobs[0].Coordinate.String() != "com.example:lib-a:1.0" {
		t.Errorf("jobs[0] = %+v", jobs[0])
	}
	if jobs[1].Index != 2 || jobs[1].Coordinate.String() != "com.example:lib-b:debug:2.0" {
		t.Errorf("jobs[1] = %+v", jobs[1])
	}
	if jobs[1].Coordinate.Extension != "aar" {
		t.Errorf("extension = %q", jobs[1].Coordinate.Extension)
	}
}

func TestPlan_Explicit(t *testing.T) {
	mode, jobs, err := Plan(load(t), []string{"g:x:1", "g:y:c:2"})
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if mode != Explicit || len(jobs) != 2 {
		t.Fatalf("mode = %v, jobs = %+v", mode, jobs)
	}
	for _, j := range jobs {
		if j.Index != -1 {
			t.Errorf("explicit job bound to declaration %d", j.Index)
		}
	}
}

func TestPlan_ExplicitParseError(t *testing.T) {
	_, jobs, err := Plan(load(t), []string{"g:x:1", "bad-coordinate"})
	if !errs.Is(err, errs.ErrCodeParse) {
		t.Fatalf("error = %v, want PARSE_ERROR", err)
	}
	if jobs != nil {
		t.Error("no jobs may be returned on parse failure")
	}
}

func TestPlan_AutomaticInvalidDeclaration(t *testing.T) {
	p, err := project.Parse(strings.NewReader(`<project><artifactId>x</artifactId><dependencies>
	  <dependency><groupId>g</groupId><artifactId>a</artifactId><type>aar</type></dependency>
	</dependencies></project>`), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := Plan(p, nil); !errs.Is(err, errs.ErrCodeInvalidManifest) {
		t.Errorf("error = %v, want INVALID_MANIFEST", err)
	}
}

func TestApply_Automatic(t *testing.T) {
	p := load(t)
	_, jobs, _ := Plan(p, nil)
	r := New(p, Automatic, log.New(io.Discard))

	if r.ReloadRequired() {
		t.Fatal("no reload before any job")
	}
	rec := &extract.Record{Payload: "/root/com.example-lib-a-1.0/classes.jar"}
	entry, err := r.Apply(jobs[0], rec, "/repo/lib-a-1.0-sources.jar")
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if entry.Payload != rec.Payload || entry.Sources != "/repo/lib-a-1.0-sources.jar" {
		t.Errorf("entry = %+v", entry)
	}
	if !r.ReloadRequired() {
		t.Error("reload should be required after Apply")
	}

	deps := p.Dependencies()
	if len(deps) != 3 {
		t.Fatalf("automatic mode must not add declarations, got %d", len(deps))
	}
	want := project.Dependency{
		GroupID: "com.example", ArtifactID: "lib-a", Version: "1.0",
		Scope: "system", Type: "jar", SystemPath: rec.Payload, Optional: true,
	}
	if deps[0] != want {
		t.Errorf("rewritten = %+v, want %+v", deps[0], want)
	}
	if deps[1].ArtifactID != "junit" || deps[1].IsSystem() {
		t.Error("unrelated declarations must be untouched")
	}
}

func TestApply_AutomaticKeepsOptionalFlag(t *testing.T) {
	p := load(t)
	_, jobs, _ := Plan(p, nil)
	r := New(p, Automatic, log.New(io.Discard))
	for _, job := range jobs {
		if _, err := r.Apply(job, &extract.Record{Payload: "/x/classes.jar"}, ""); err != nil {
			t.Fatalf("Apply(%s) error: %v", job.Coordinate, err)
		}
	}

	deps := p.Dependencies()
	if !deps[0].Optional {
		t.Error("lib-a lost its optional flag")
	}
	if deps[2].Optional {
		t.Error("lib-b must not become optional")
	}

	var buf strings.Builder
	if err := p.WriteEffective(&buf); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(buf.String(), "<optional>true</optional>"); n != 1 {
		t.Errorf("serialized manifest has %d optional markers, want 1:\n%s", n, buf.String())
	}
}

func TestApply_Explicit(t *testing.T) {
	p := load(t)
	_, jobs, _ := Plan(p, []string{"com.example:lib-a:1.0"})
	r := New(p, Explicit, log.New(io.Discard))

	if _, err := r.Apply(jobs[0], &extract.Record{Payload: "/x/classes.jar"}, ""); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	deps := p.Dependencies()
	if len(deps) != 4 {
		t.Fatalf("len(deps) = %d, want 4", len(deps))
	}
	// The pre-existing declaration is left alone; duplicates are possible.
	if deps[0].IsSystem() {
		t.Error("explicit mode must not modify existing declarations")
	}
	added := deps[3]
	if added.ArtifactID != "lib-a" || !added.IsSystem() || added.Type != "jar" || added.SystemPath != "/x/classes.jar" {
		t.Errorf("added = %+v", added)
	}
}

func TestMode_String(t *testing.T) {
	if Automatic.String() != "automatic" || Explicit.String() != "explicit" {
		t.Error("unexpected mode names")
	}
}
