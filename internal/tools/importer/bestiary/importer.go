// Package bestiaryimporter loads combatant profiles from JSON files into the
// bestiary database.
package bestiaryimporter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/louisbranch/dicedensity/internal/bestiary"
	bestiarysqlite "github.com/louisbranch/dicedensity/internal/bestiary/sqlite"
)

// Config holds configuration for the bestiary importer.
type Config struct {
	// Path is a JSON file or a directory of JSON files.
	Path   string
	DBPath string
	DryRun bool
}

// ParseConfig parses CLI flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{
		DBPath: filepath.Join("data", "bestiary.db"),
	}

	fs.StringVar(&cfg.Path, "path", "", "bestiary JSON file or directory of JSON files")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "bestiary database path")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "validate without writing to the database")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.Path) == "" {
		return Config{}, errors.New("path is required")
	}
	return cfg, nil
}

// Run executes the importer using the provided Config.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if out == nil {
		out = io.Discard
	}

	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return errors.New("path is required")
	}

	files, err := listFiles(path)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no json files found in %s", path)
	}

	var profiles []bestiary.Profile
	for _, file := range files {
		payload, err := readPayload(file)
		if err != nil {
			return err
		}
		profiles = append(profiles, payload.Profiles...)
	}
	if err := validateProfiles(profiles); err != nil {
		return err
	}

	if cfg.DryRun {
		_, err = fmt.Fprintf(out, "validated %d profile(s)\n", len(profiles))
		return err
	}

	store, err := bestiarysqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open bestiary store: %w", err)
	}
	defer store.Close()

	if err := upsertProfiles(ctx, store, profiles); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "imported %d profile(s) into %s\n", len(profiles), cfg.DBPath)
	return err
}

// payload is the on-disk shape of a bestiary file.
type payload struct {
	Source   string             `json:"source"`
	Profiles []bestiary.Profile `json:"profiles"`
}

func listFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		files = append(files, filepath.Join(path, entry.Name()))
	}
	slices.Sort(files)
	return files, nil
}

func readPayload(path string) (payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return payload{}, err
	}

	var value payload
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&value); err != nil {
		return payload{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return value, nil
}

func validateProfiles(profiles []bestiary.Profile) error {
	seen := make(map[string]struct{}, len(profiles))
	for i, profile := range profiles {
		profile = profile.Normalize()
		if err := profile.Validate(); err != nil {
			return fmt.Errorf("profile %d: %w", i, err)
		}
		if _, ok := seen[profile.Name]; ok {
			return fmt.Errorf("duplicate profile name %q", profile.Name)
		}
		seen[profile.Name] = struct{}{}
	}
	return nil
}

func upsertProfiles(ctx context.Context, store bestiary.Store, profiles []bestiary.Profile) error {
	for _, profile := range profiles {
		if err := store.PutProfile(ctx, profile); err != nil {
			return fmt.Errorf("put profile %s: %w", strings.TrimSpace(profile.Name), err)
		}
	}
	return nil
}
