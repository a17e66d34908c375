package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	nonNameChars   = regexp.MustCompile(`[^a-z0-9_]+`)
	separatorChars = regexp.MustCompile(`[\s\-_]+`)
	versionPrefix  = regexp.MustCompile(`^(\d+)_.+\.(up|down)\.sql$`)
)

// MigrationFile describes a newly created up/down pair
type MigrationFile struct {
	Version  uint
	Name     string
	UpPath   string
	DownPath string
}

// CreateMigration writes the next sequential migration pair, numbered after
// the highest version already present in dir (000001_name.up.sql).
func CreateMigration(dir, name string) (*MigrationFile, error) {
	clean := sanitizeName(name)
	if clean == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	current, err := latestVersion(dir)
	if err != nil {
		return nil, err
	}
	next := current + 1
	base := fmt.Sprintf("%06d_%s", next, clean)

	mf := &MigrationFile{
		Version:  next,
		Name:     clean,
		UpPath:   filepath.Join(dir, base+".up.sql"),
		DownPath: filepath.Join(dir, base+".down.sql"),
	}

	if err := writeNew(mf.UpPath, fmt.Sprintf("-- %s\n", clean)); err != nil {
		return nil, err
	}
	if err := writeNew(mf.DownPath, fmt.Sprintf("-- rollback %s\n", clean)); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, err
	}
	return mf, nil
}

func writeNew(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	_, err = f.WriteString(content)
	return err
}

func latestVersion(dir string) (uint, error) {
	names, err := migrationFiles(dir)
	if err != nil {
		return 0, err
	}
	var latest uint
	for _, n := range names {
		m := versionPrefix.FindStringSubmatch(n)
		v, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			continue
		}
		if uint(v) > latest {
			latest = uint(v)
		}
	}
	return latest, nil
}

func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && versionPrefix.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// sanitizeName lowercases name and collapses separators into single underscores
func sanitizeName(name string) string {
	s := separatorChars.ReplaceAllString(strings.ToLower(name), "_")
	s = nonNameChars.ReplaceAllString(s, "")
	return strings.Trim(s, "_")
}

// ListMigrations returns the base names of the up migrations in dir, in version order
func ListMigrations(dir string) ([]string, error) {
	names, err := migrationFiles(dir)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.HasSuffix(n, ".up.sql") {
			out = append(out, strings.TrimSuffix(n, ".up.sql"))
		}
	}
	return out, nil
}
