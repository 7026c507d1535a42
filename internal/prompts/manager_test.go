package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	errs "builder-maps/pkg/errors"
)

func TestManager_RendersScreeningTemplates(t *testing.T) {
	m, err := NewManager("")
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	out, err := m.Render("screening_system", map[string]any{"Categories": []string{"cafe", "coworking"}})
	if err != nil {
		t.Fatalf("render system: %v", err)
	}
	if !strings.Contains(out, "cafe, coworking.") {
		t.Errorf("categories not listed: %q", out)
	}

	out, err = m.Render("screening_user", map[string]any{
		"Name": "Capital Factory", "CityID": "austin", "Category": "coworking",
		"Address": "", "Description": "", "Website": "",
		"Links": []map[string]string{{"Label": "Twitter", "URL": "https://twitter.com/capfactory"}},
	})
	if err != nil {
		t.Fatalf("render user: %v", err)
	}
	if strings.Contains(out, "Address:") {
		t.Errorf("empty address should be omitted: %q", out)
	}
	if !strings.Contains(out, "Link (Twitter): https://twitter.com/capfactory") {
		t.Errorf("link missing: %q", out)
	}
}

func TestManager_UnknownTemplate(t *testing.T) {
	m, err := NewManager("")
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	_, err = m.Render("nope", nil)
	if !errs.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "screening_user") {
		t.Errorf("error should list known templates: %v", err)
	}
}

func TestManager_MissingKeyFails(t *testing.T) {
	m, err := NewManager("")
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if _, err := m.Render("screening_user", map[string]any{"Name": "x"}); err == nil {
		t.Fatal("expected error for missing template data")
	}
}

func TestManager_OverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "screening_system.txt.tmpl"), []byte("custom: {{join .Categories \"|\"}}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	out, err := m.Render("screening_system", map[string]any{"Categories": []string{"a", "b"}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "custom: a|b" {
		t.Errorf("override not applied: %q", out)
	}

	names := m.Names()
	if names["screening_user"] != "embedded" {
		t.Errorf("screening_user should stay embedded: %v", names)
	}
	if names["screening_system"] != filepath.Join(dir, "screening_system.txt.tmpl") {
		t.Errorf("unexpected source: %v", names)
	}
}

func TestManager_BadOverrides(t *testing.T) {
	if _, err := NewManager(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing dir")
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "screening_user.txt.tmpl"), []byte("{{.Name"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewManager(dir); err == nil {
		t.Error("expected parse error")
	}
}
