package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestFSLocator_Discover(t *testing.T) {
	tests := []struct {
		name  string
		setup func(root string)
		cwd   string
		want  string
	}{
		{
			name:  "solution file",
			setup: func(root string) { touch(t, filepath.Join(root, "App.sln")) },
			cwd:   "src/App",
			want:  ".",
		},
		{
			name: "config file nearer than git",
			setup: func(root string) {
				touch(t, filepath.Join(root, ".git", "HEAD"))
				touch(t, filepath.Join(root, "plugin", "conflictfix.yml"))
			},
			cwd:  "plugin/src",
			want: "plugin",
		},
		{
			name:  "git fallback",
			setup: func(root string) { touch(t, filepath.Join(root, ".git", "HEAD")) },
			cwd:   "a/b",
			want:  ".",
		},
		{
			name: "solution above git wins",
			setup: func(root string) {
				touch(t, filepath.Join(root, "All.sln"))
				touch(t, filepath.Join(root, "sub", ".git"))
			},
			cwd:  "sub/x",
			want: ".",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			tt.setup(root)
			cwd := filepath.Join(root, tt.cwd)
			if err := os.MkdirAll(cwd, 0755); err != nil {
				t.Fatal(err)
			}

			got, err := NewFSLocator().Discover(cwd)
			if err != nil {
				t.Fatalf("Discover failed: %v", err)
			}
			want := filepath.Join(root, tt.want)
			if got != want {
				t.Errorf("Discover = %q, want %q", got, want)
			}
		})
	}
}

func TestFSLocator_DiscoverNotFound(t *testing.T) {
	// Temp dirs normally sit outside any repository; skip if not.
	dir := t.TempDir()
	got, err := NewFSLocator().Discover(dir)
	if err == nil {
		t.Skipf("temp dir is inside a project at %s", got)
	}
	if !errors.Is(err, ErrNotInProject) {
		t.Errorf("expected ErrNotInProject, got %v", err)
	}
}

func TestFSLocator_RelPath(t *testing.T) {
	l := NewFSLocator()
	root := filepath.FromSlash("/work/app")

	rel, err := l.RelPath(root, filepath.Join(root, "src", "A.cs"))
	if err != nil {
		t.Fatalf("RelPath failed: %v", err)
	}
	if rel != filepath.Join("src", "A.cs") {
		t.Errorf("RelPath = %q", rel)
	}

	if _, err := l.RelPath(root, filepath.FromSlash("/work/other/B.cs")); err == nil {
		t.Error("expected error for path outside project")
	}
	if rel, err := l.RelPath(root, filepath.Join(root, "..data", "x")); err != nil || rel != filepath.Join("..data", "x") {
		t.Errorf("dot-prefixed directory misread as outside: %q, %v", rel, err)
	}
}

func TestProjectFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "App.sln"))
	touch(t, filepath.Join(root, "App", "App.csproj"))
	touch(t, filepath.Join(root, "Lib", "Core", "Core.csproj"))
	touch(t, filepath.Join(root, "App", "obj", "Copy.csproj"))

	files, err := ProjectFiles(root)
	if err != nil {
		t.Fatalf("ProjectFiles failed: %v", err)
	}
	want := []string{
		filepath.Join(root, "App.sln"),
		filepath.Join(root, "App", "App.csproj"),
		filepath.Join(root, "Lib", "Core", "Core.csproj"),
	}
	if len(files) != len(want) {
		t.Fatalf("ProjectFiles = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}
