// Package config loads the goalstack YAML configuration.
//
// Every field has a default that reproduces the reference goals stack, so an
// empty or missing file is a valid configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lex00/goalstack-go/resources/codebuild"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "goalstack.yaml"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the full stack configuration.
type Config struct {
	Project     string          `yaml:"project"`
	Description string          `yaml:"description,omitempty"`
	StackName   string          `yaml:"stackName,omitempty"`
	Region      string          `yaml:"region,omitempty"`
	Seed        *uint64         `yaml:"seed,omitempty"`
	Table       TableConfig     `yaml:"table"`
	Website     WebsiteConfig   `yaml:"website"`
	Functions   FunctionsConfig `yaml:"functions"`
	Build       BuildConfig     `yaml:"build"`
	Pipeline    PipelineConfig  `yaml:"pipeline"`
}

// TableConfig configures the goals table.
type TableConfig struct {
	Name          string `yaml:"name"`
	ReadCapacity  int    `yaml:"readCapacity"`
	WriteCapacity int    `yaml:"writeCapacity"`
}

// WebsiteConfig configures the static website bucket.
type WebsiteConfig struct {
	IndexDocument string `yaml:"indexDocument"`
	ErrorDocument string `yaml:"errorDocument"`
}

// FunctionsConfig configures the five goal functions.
type FunctionsConfig struct {
	Runtime    string `yaml:"runtime"`
	MemorySize int    `yaml:"memorySize"`
	Timeout    int    `yaml:"timeout"`
	CodeBucket string `yaml:"codeBucket,omitempty"`
	CodePrefix string `yaml:"codePrefix"`
	CodeDir    string `yaml:"codeDir"`
}

// BuildConfig configures the CodeBuild project that publishes the website.
type BuildConfig struct {
	Image          string `yaml:"image"`
	ComputeType    string `yaml:"computeType"`
	TimeoutMinutes int    `yaml:"timeoutMinutes"`
	BuildSpec      string `yaml:"buildSpec"`
}

// PipelineConfig configures the asset pipeline source.
type PipelineConfig struct {
	AssetsKey  string `yaml:"assetsKey"`
	AssetsFile string `yaml:"assetsFile,omitempty"`
}

// Default returns the configuration of the reference goals stack.
func Default() Config {
	return Config{
		Project: "MyCdkGoals",
		Table: TableConfig{
			Name:          "CdkGoals",
			ReadCapacity:  1,
			WriteCapacity: 1,
		},
		Website: WebsiteConfig{
			IndexDocument: "index.html",
			ErrorDocument: "index.html",
		},
		Functions: FunctionsConfig{
			Runtime:    "nodejs12.x",
			MemorySize: 256,
			Timeout:    120,
			CodePrefix: "functions/",
			CodeDir:    "functions",
		},
		Build: BuildConfig{
			Image:          "aws/codebuild/standard:3.0",
			ComputeType:    codebuild.ComputeTypeSmall,
			TimeoutMinutes: 5,
			BuildSpec:      "buildspec.yml",
		},
		Pipeline: PipelineConfig{
			AssetsKey: "assets.zip",
		},
	}
}

// Load reads path and decodes it over the defaults. A missing file at the
// default path yields the defaults; a missing explicit path is an error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var projectPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*$`)

// Validate checks value ranges accepted by the managed services.
func (c Config) Validate() error {
	var problems []string
	if !projectPattern.MatchString(c.Project) {
		problems = append(problems, fmt.Sprintf("project %q must start with a letter and contain only letters, digits and hyphens", c.Project))
	}
	if c.Table.Name == "" {
		problems = append(problems, "table.name is required")
	}
	if c.Table.ReadCapacity < 1 || c.Table.WriteCapacity < 1 {
		problems = append(problems, "table capacity must be at least 1")
	}
	if c.Website.IndexDocument == "" {
		problems = append(problems, "website.indexDocument is required")
	}
	if c.Functions.Runtime == "" {
		problems = append(problems, "functions.runtime is required")
	}
	if c.Functions.MemorySize < 128 || c.Functions.MemorySize > 10240 {
		problems = append(problems, fmt.Sprintf("functions.memorySize %d out of range [128, 10240]", c.Functions.MemorySize))
	}
	if c.Functions.Timeout < 1 || c.Functions.Timeout > 900 {
		problems = append(problems, fmt.Sprintf("functions.timeout %d out of range [1, 900]", c.Functions.Timeout))
	}
	if c.Build.Image == "" || c.Build.ComputeType == "" || c.Build.BuildSpec == "" {
		problems = append(problems, "build.image, build.computeType and build.buildSpec are required")
	}
	switch c.Build.ComputeType {
	case "", codebuild.ComputeTypeSmall, codebuild.ComputeTypeMedium, codebuild.ComputeTypeLarge:
	default:
		problems = append(problems, fmt.Sprintf("build.computeType %q is not a general-purpose compute type", c.Build.ComputeType))
	}
	if c.Build.TimeoutMinutes < 5 || c.Build.TimeoutMinutes > 480 {
		problems = append(problems, fmt.Sprintf("build.timeoutMinutes %d out of range [5, 480]", c.Build.TimeoutMinutes))
	}
	if c.Pipeline.AssetsKey == "" {
		problems = append(problems, "pipeline.assetsKey is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Stack returns the CloudFormation stack name, defaulting to the project.
func (c Config) Stack() string {
	if c.StackName != "" {
		return c.StackName
	}
	return c.Project
}

// TableName returns the physical table name "<project>-<table>".
func (c Config) TableName() string {
	return c.Project + "-" + c.Table.Name
}
