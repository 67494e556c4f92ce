package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/botan/internal/errors"
)

func TestValidatePath_TraversalRejected(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"parent traversal", "../palette.csv"},
		{"deep traversal", "../../etc/palette.csv"},
		{"mid-path traversal", "/tmp/../etc/palette.csv"},
		{"hidden in path", "/tmp/safe/../../../etc/shadow.csv"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePath(tc.path, PathCheckWrite, reportExts)
			if err == nil {
				t.Error("expected error for path traversal, got nil")
			}
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestValidatePath_ExtensionRequired(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		path string
		exts []string
	}{
		{"no extension", filepath.Join(tmpDir, "palette"), reportExts},
		{"document as report", filepath.Join(tmpDir, "palette.yaml"), reportExts},
		{"txt document", filepath.Join(tmpDir, "doc.txt"), documentExts},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePath(tc.path, PathCheckWrite, tc.exts)
			if err == nil {
				t.Error("expected error for wrong extension, got nil")
			}
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestValidatePath_ExtensionCaseInsensitive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Palette.HTML")
	if err := ValidatePath(path, PathCheckWrite, reportExts); err != nil {
		t.Errorf("expected upper-case extension to pass, got: %v", err)
	}
}

func TestValidatePath_AnyDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	testFile := filepath.Join(tmpDir, "doc.json")
	if err := os.WriteFile(testFile, []byte("{}"), 0600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	if err := ValidatePath(testFile, PathCheckRead, documentExts); err != nil {
		t.Errorf("expected success for read, got: %v", err)
	}

	nested := filepath.Join(tmpDir, "a", "b", "out.yaml")
	if err := ValidatePath(nested, PathCheckWrite, documentExts); err != nil {
		t.Errorf("expected success for nested write, got: %v", err)
	}
}

func TestValidatePath_Empty(t *testing.T) {
	err := ValidatePath("", PathCheckRead, nil)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
}

func TestValidatePath_FileNotFound_ReadMode(t *testing.T) {
	nonExistent := filepath.Join(t.TempDir(), "nonexistent.json")
	err := ValidatePath(nonExistent, PathCheckRead, documentExts)
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
	if !errors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got: %v", err)
	}
}

func TestValidatePath_DirectoryRejected_ReadMode(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dir.json")
	if err := os.Mkdir(dir, 0700); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	err := ValidatePath(dir, PathCheckRead, documentExts)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
}

func TestValidatePath_SymlinkRejected(t *testing.T) {
	tmpDir := t.TempDir()

	targetFile := filepath.Join(tmpDir, "target.json")
	if err := os.WriteFile(targetFile, []byte("{}"), 0600); err != nil {
		t.Fatalf("failed to create target file: %v", err)
	}
	symlink := filepath.Join(tmpDir, "link.json")
	if err := os.Symlink(targetFile, symlink); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	for _, mode := range []PathCheckMode{PathCheckRead, PathCheckWrite} {
		err := ValidatePath(symlink, mode, documentExts)
		if err == nil {
			t.Errorf("mode %d: expected error for symlink, got nil", mode)
		}
		if !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("mode %d: expected ErrInvalidRequest, got: %v", mode, err)
		}
	}
}

func TestContainsTraversal(t *testing.T) {
	tests := []struct {
		path     string
		contains bool
	}{
		{"/home/user/file.txt", false},
		{"../file.txt", true},
		{"/home/../etc/passwd", true},
		{"./file.txt", false},
		{"/home/user/.hidden/file.txt", false},
		{"file..name.txt", false}, // .. not as path component
		{"/tmp/a/b/../c.json", true},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			result := containsTraversal(tc.path)
			if result != tc.contains {
				t.Errorf("containsTraversal(%q) = %v, want %v", tc.path, result, tc.contains)
			}
		})
	}
}

func TestSanitizeForFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple name", "winter", "winter"},
		{"with spaces", "winter summer", "winter-summer"},
		{"forward slash", "path/to/file", "path-to-file"},
		{"backslash", "path\\to\\file", "path-to-file"},
		{"double dots", "foo..bar", "foo-bar"},
		{"traversal attempt", "../../../etc/passwd", "etc-passwd"},
		{"absolute path", "/tmp/evil", "tmp-evil"},
		{"mixed attack", "../foo/bar\\..\\baz", "foo-bar-baz"},
		{"null bytes", "foo\x00bar", "foobar"},
		{"control chars", "foo\x01\x02bar", "foobar"},
		{"empty after sanitize", "../../..", "unnamed"},
		{"only slashes", "///", "unnamed"},
		{"unicode preserved", "été-automne", "été-automne"},
		{"multiple dashes collapse", "a---b", "a-b"},
		{"leading dashes trimmed", "---foo", "foo"},
		{"trailing dashes trimmed", "foo---", "foo"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := SanitizeForFilename(tc.input)
			if result != tc.expected {
				t.Errorf("SanitizeForFilename(%q) = %q, want %q", tc.input, result, tc.expected)
			}
		})
	}
}
