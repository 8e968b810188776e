package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/matzehuels/aarunpack/pkg/config"
	errs "github.com/matzehuels/aarunpack/pkg/errors"
	"github.com/matzehuels/aarunpack/pkg/session"
)

const testPOM = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <groupId>com.example</groupId>
  <artifactId>app</artifactId>
  <version>1.0</version>
  <dependencies>
    <dependency>
      <groupId>com.example</groupId>
      <artifactId>lib</artifactId>
      <version>1.0</version>
      <type>aar</type>
    </dependency>
  </dependencies>
</project>
`

// workspace lays out a project with an offline local repository holding
// com.example:lib:1.0 and returns the pom path.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	m2 := filepath.Join(dir, "m2")

	aar := filepath.Join(m2, "com", "example", "lib", "1.0", "lib-1.0.aar")
	if err := os.MkdirAll(filepath.Dir(aar), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(aar)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("classes.jar")
	w.Write([]byte("payload"))
	zw.Close()
	f.Close()

	cfg := "offline = true\n" +
		"local_repository = '" + m2 + "'\n" +
		"[cache]\nbackend = 'none'\n" +
		"[session]\ndir = '" + filepath.Join(dir, "sessions") + "'\n"
	if err := os.WriteFile(filepath.Join(dir, config.FileName), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	pom := filepath.Join(dir, "pom.xml")
	if err := os.WriteFile(pom, []byte(testPOM), 0o644); err != nil {
		t.Fatal(err)
	}
	return pom
}

func execute(t *testing.T, out io.Writer, args ...string) error {
	t.Helper()
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestUnpackCommand(t *testing.T) {
	pom := workspace(t)
	dir := filepath.Dir(pom)
	written := filepath.Join(dir, "out", "pom.xml")

	if err := execute(t, io.Discard, "unpack", "-f", pom, "--write-pom", written); err != nil {
		t.Fatalf("unpack: %v", err)
	}

	payload := filepath.Join(dir, "target", "aar-extracted", "com.example-lib-1.0", "classes.jar")
	if _, err := os.Stat(payload); err != nil {
		t.Fatalf("payload not extracted: %v", err)
	}

	data, err := os.ReadFile(written)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"<scope>system</scope>", "<systemPath>" + payload + "</systemPath>"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("written pom missing %q:\n%s", want, data)
		}
	}

	store, err := session.NewFileStore(filepath.Join(dir, "sessions"))
	if err != nil {
		t.Fatal(err)
	}
	sess, err := store.Latest(context.Background(), "com.example:app:1.0")
	if err != nil {
		t.Fatalf("session not saved: %v", err)
	}
	if got := sess.Payloads(); len(got) != 1 || got[0] != payload {
		t.Errorf("session payloads = %v", got)
	}

	var buf bytes.Buffer
	if err := execute(t, &buf, "classpath", "-f", pom); err != nil {
		t.Fatalf("classpath: %v", err)
	}
	if strings.TrimSpace(buf.String()) != payload {
		t.Errorf("classpath output = %q, want %q", buf.String(), payload)
	}

	buf.Reset()
	if err := execute(t, &buf, "classpath", sess.ID, "-f", pom, "--format", "json"); err != nil {
		t.Fatalf("classpath json: %v", err)
	}
	var entries []session.ClasspathEntry
	if err := json.Unmarshal(buf.Bytes(), &entries); err != nil || len(entries) != 1 {
		t.Errorf("json classpath = %s (%v)", buf.String(), err)
	}
}

func TestUnpackCommand_ContinueSession(t *testing.T) {
	pom := workspace(t)
	dir := filepath.Dir(pom)

	if err := execute(t, io.Discard, "unpack", "-f", pom); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, io.Discard, "unpack", "-f", pom, "--session", "latest"); err != nil {
		t.Fatal(err)
	}

	store, _ := session.NewFileStore(filepath.Join(dir, "sessions"))
	all, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("sessions = %d, want 1", len(all))
	}
	if all[0].Runs != 2 || len(all[0].Classpath) != 2 {
		t.Errorf("runs = %d, entries = %d", all[0].Runs, len(all[0].Classpath))
	}
}

func TestUnpackCommand_ExplicitMissing(t *testing.T) {
	pom := workspace(t)
	err := execute(t, io.Discard, "unpack", "-f", pom, "--coordinates", "com.example:absent:1.0")
	if !errs.Is(err, errs.ErrCodeResolution) {
		t.Errorf("error = %v, want RESOLUTION_ERROR", err)
	}
}

func TestUnpackCommand_BadCoordinate(t *testing.T) {
	pom := workspace(t)
	err := execute(t, io.Discard, "unpack", "-f", pom, "--coordinates", "missing-separator")
	if !errs.Is(err, errs.ErrCodeParse) {
		t.Errorf("error = %v, want PARSE_ERROR", err)
	}
}

func TestOpenSession_LatestMissing(t *testing.T) {
	store, err := session.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := openSession(context.Background(), store, "latest", "g:a:v"); !errs.Is(err, errs.ErrCodeSessionNotFound) {
		t.Errorf("error = %v, want SESSION_NOT_FOUND", err)
	}
	sess, err := openSession(context.Background(), store, "", "g:a:v")
	if err != nil || sess.Project != "g:a:v" {
		t.Errorf("openSession(\"\") = %+v, %v", sess, err)
	}
}

func TestWriteClasspath(t *testing.T) {
	sess := session.New("g:a:v")
	sess.Append(
		session.ClasspathEntry{Payload: "/a.jar", Sources: "/a-sources.jar"},
		session.ClasspathEntry{Payload: "/b.jar"},
	)
	sep := string(os.PathListSeparator)

	tests := []struct {
		flags classpathFlags
		want  string
	}{
		{classpathFlags{format: "text"}, "/a.jar" + sep + "/b.jar\n"},
		{classpathFlags{format: "text", sources: true}, "/a.jar" + sep + "/a-sources.jar" + sep + "/b.jar\n"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := writeClasspath(&buf, sess, tt.flags); err != nil {
			t.Fatal(err)
		}
		if buf.String() != tt.want {
			t.Errorf("writeClasspath(%+v) = %q, want %q", tt.flags, buf.String(), tt.want)
		}
	}

	if err := writeClasspath(io.Discard, sess, classpathFlags{format: "yaml"}); err == nil {
		t.Error("unknown format should fail")
	}
}
