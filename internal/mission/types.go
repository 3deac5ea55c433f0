package mission

import "time"

// Mission defines the structure of a practice mission loaded from YAML.
type Mission struct {
	ID          string     `yaml:"id" json:"id"`
	Title       string     `yaml:"title" json:"title"`
	Description string     `yaml:"description" json:"description"`
	Difficulty  Difficulty `yaml:"difficulty" json:"difficulty"`
	Skill       string     `yaml:"skill" json:"skill"`
	Seed        Seed       `yaml:"seed" json:"-"`       // Initial repository
	Setup       []string   `yaml:"setup" json:"-"`      // Commands to run after seeding
	Validation  Validation `yaml:"validation" json:"-"` // Validation rules
	Hints       []string   `yaml:"hints" json:"hints"`
}

type Difficulty struct {
	Level string `yaml:"level" json:"level"` // basic, intermediate, advanced
	Stars int    `yaml:"stars" json:"stars"` // 1-5
}

// Seed describes a repository in YAML form. Commits are listed oldest
// first.
type Seed struct {
	CurrentBranch string            `yaml:"current_branch"`
	GitIgnore     []string          `yaml:"gitignore"`
	Commits       []SeedCommit      `yaml:"commits"`
	Branches      []SeedBranch      `yaml:"branches"`
	Remotes       []SeedRemote      `yaml:"remotes"`
	Files         map[string]string `yaml:"files"` // Working tree edits over the head snapshot
	Deleted       []string          `yaml:"deleted"`
}

type SeedCommit struct {
	ID              string            `yaml:"id"`
	Message         string            `yaml:"message"`
	Author          string            `yaml:"author"`
	Timestamp       time.Time         `yaml:"timestamp"`
	Age             time.Duration     `yaml:"age"` // Used when Timestamp is unset
	Parent          string            `yaml:"parent"`
	SecondaryParent string            `yaml:"secondary_parent"`
	Tags            []string          `yaml:"tags"`
	Lane            int               `yaml:"lane"`
	Files           map[string]string `yaml:"files"`
}

type SeedBranch struct {
	Name       string `yaml:"name"`
	Head       string `yaml:"head"`
	RemoteHead string `yaml:"remote_head"`
}

type SeedRemote struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type Validation struct {
	Checks []Check `yaml:"checks"`
}

type Check struct {
	Type           string   `yaml:"type"`            // see the Check* constants
	Description    string   `yaml:"description"`     // User facing description
	MessagePattern string   `yaml:"message_pattern"` // For commit_exists
	Path           string   `yaml:"path"`            // For file checks
	Contains       []string `yaml:"contains"`        // For file_content
	Name           string   `yaml:"name"`            // For branch and remote checks
	Negate         bool     `yaml:"negate"`          // If true, inverts the pass condition
}
