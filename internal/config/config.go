package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// FileName is the config file looked up in the working directory.
	FileName = ".bbtool.yml"
	// EnvVar names a config file when --config is not given.
	EnvVar = "BBTOOL_CONFIG"
	// DefaultGroup is the container restructured when none is configured.
	DefaultGroup = "Core"
	// ManifestName is the manifest file inside an .xcodeproj bundle.
	ManifestName = "project.pbxproj"
)

// ErrNoProject is returned when no manifest was configured or found.
var ErrNoProject = errors.New("no Xcode project configured; pass --project or set project in " + FileName)

// Config holds the CLI configuration.
type Config struct {
	// Project is an .xcodeproj directory or a project.pbxproj file.
	Project string `yaml:"project"`
	// Group is the container to restructure: object id, name or path.
	Group string `yaml:"group"`
	// Target is the native target checked by the membership command.
	Target string `yaml:"target"`
	// MembershipFiles are checked when none are given on the command line.
	MembershipFiles []string `yaml:"membership_files"`
	// Backup copies the manifest before every apply.
	Backup bool `yaml:"backup"`
	// StateDir holds the journal (~/.bbtool by default).
	StateDir string `yaml:"state_dir"`

	// Path is the config file that was read, empty when none was.
	Path string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Group:    DefaultGroup,
		StateDir: "~/.bbtool",
	}
}

// Load reads the config file at path. An empty path falls back to $BBTOOL_CONFIG
// and then to .bbtool.yml in the working directory; a missing default file is
// not an error, a missing explicit one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	resolved, explicit := path, path != ""
	if !explicit {
		if env := strings.TrimSpace(os.Getenv(EnvVar)); env != "" {
			resolved, explicit = env, true
		} else {
			resolved = FileName
		}
	}
	resolved, err := expandPath(resolved)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", resolved, err)
		}
		cfg.Path = resolved
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.normalize(filepath.Dir(resolved)); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize fills defaults for blank values and resolves paths. Relative
// project paths in a config file are taken relative to that file.
func (c *Config) normalize(baseDir string) error {
	if strings.TrimSpace(c.Group) == "" {
		c.Group = DefaultGroup
	}
	if strings.TrimSpace(c.StateDir) == "" {
		c.StateDir = Default().StateDir
	}

	stateDir, err := expandPath(c.StateDir)
	if err != nil {
		return err
	}
	c.StateDir = stateDir

	if c.Project != "" {
		project, err := expandPath(c.Project)
		if err != nil {
			return err
		}
		if !filepath.IsAbs(project) && c.Path != "" {
			project = filepath.Join(baseDir, project)
		}
		c.Project = project
	}
	return nil
}

// ResolveManifest turns a project reference into the path of its manifest.
// ref may be an .xcodeproj directory or the manifest file itself; an empty
// ref uses the configured project, then the only .xcodeproj in the working
// directory.
func (c *Config) ResolveManifest(ref string) (string, error) {
	if ref == "" {
		ref = c.Project
	}
	if ref == "" {
		found, err := findProject(".")
		if err != nil {
			return "", err
		}
		ref = found
	}

	ref, err := expandPath(ref)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(ref)
	if err != nil {
		return "", fmt.Errorf("failed to open project: %w", err)
	}
	if info.IsDir() {
		manifest := filepath.Join(ref, ManifestName)
		if _, err := os.Stat(manifest); err != nil {
			return "", fmt.Errorf("%s does not contain %s: %w", ref, ManifestName, err)
		}
		return manifest, nil
	}
	return ref, nil
}

func findProject(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.xcodeproj"))
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", ErrNoProject
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("found %d .xcodeproj bundles, pass --project to pick one", len(matches))
	}
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Clean(path), nil
}

// SystemTools lists the external commands bbtool shells out to.
var SystemTools = []string{"ioreg", "system_profiler", "profiles", "xcode-select"}

// CheckTools reports which of SystemTools are on PATH.
func CheckTools() map[string]bool {
	status := make(map[string]bool, len(SystemTools))
	for _, name := range SystemTools {
		_, err := exec.LookPath(name)
		status[name] = err == nil
	}
	return status
}

// CheckXcode returns true if the full Xcode IDE is installed (not just CLT).
func CheckXcode() bool {
	out, err := exec.Command("xcode-select", "-p").Output()
	if err != nil {
		return false
	}
	path := strings.TrimSpace(string(out))
	// xcode-select -p returns /Applications/Xcode.app/... for full Xcode
	// or /Library/Developer/CommandLineTools for CLT only
	return strings.Contains(path, "Xcode.app")
}
