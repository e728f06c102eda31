package provider

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed programs.yaml
var defaultProgramsYAML []byte

// Window is one configured funding window of a program.
type Window struct {
	Start      int64    `yaml:"start"`
	End        *int64   `yaml:"end,omitempty"` // nil means open-ended
	Budget     string   `yaml:"budget,omitempty"`
	APR        *float64 `yaml:"apr,omitempty"`
	PointValue *float64 `yaml:"pointValue,omitempty"`
}

// CuratedCampaign is one entry of the curated off-chain dataset. Round
// windows are supplied externally alongside the token addresses; tokens
// are resolved against the registry at fetch time.
type CuratedCampaign struct {
	Name           string   `yaml:"name"`
	ChainID        int64    `yaml:"chainId"`
	RewardToken    string   `yaml:"rewardToken"` // address
	InvolvedTokens []string `yaml:"involvedTokens"`
	Description    string   `yaml:"description,omitempty"`
	ClaimLink      string   `yaml:"claimLink,omitempty"`
	Rounds         []Window `yaml:"rounds"`
}

// EmitterConfig describes one on-chain emission contract
// (staking-rewards style) to read.
type EmitterConfig struct {
	Name         string `yaml:"name"`
	ChainID      int64  `yaml:"chainId"`
	Address      string `yaml:"address"`      // emission contract
	RewardToken  string `yaml:"rewardToken"`  // address
	StakingToken string `yaml:"stakingToken"` // address
	ClaimLink    string `yaml:"claimLink,omitempty"`
	Description  string `yaml:"description,omitempty"`
}

// PointProgramConfig describes one local static point program.
type PointProgramConfig struct {
	Name           string   `yaml:"name"`
	Protocol       string   `yaml:"protocol"`
	ChainID        int64    `yaml:"chainId"`
	InvolvedTokens []string `yaml:"involvedTokens"`
	PointValue     *float64 `yaml:"pointValue,omitempty"`
	PointValueUnit string   `yaml:"pointValueUnit,omitempty"`
	TGEPrice       *float64 `yaml:"tgePrice,omitempty"`
	ClaimLink      string   `yaml:"claimLink,omitempty"`
	Description    string   `yaml:"description,omitempty"`
	Windows        []Window `yaml:"windows"`
}

// ProgramsFile is the yaml document holding the static provider datasets.
type ProgramsFile struct {
	Curated  []CuratedCampaign    `yaml:"curated"`
	Emitters []EmitterConfig      `yaml:"emitters"`
	Points   []PointProgramConfig `yaml:"points"`
}

// LoadPrograms parses a yaml programs document.
func LoadPrograms(reader io.Reader) (ProgramsFile, error) {
	var f ProgramsFile
	raw, err := io.ReadAll(reader)
	if err != nil {
		return f, fmt.Errorf("read programs: %w", err)
	}
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return f, fmt.Errorf("parse programs: %w", err)
	}
	return f, nil
}

// LoadProgramsFile loads programs from a yaml file path.
func LoadProgramsFile(path string) (ProgramsFile, error) {
	fh, err := os.Open(path)
	if err != nil {
		return ProgramsFile{}, fmt.Errorf("open programs: %w", err)
	}
	defer fh.Close()
	return LoadPrograms(fh)
}

// DefaultPrograms returns the embedded datasets.
func DefaultPrograms() ProgramsFile {
	var f ProgramsFile
	if err := yaml.Unmarshal(defaultProgramsYAML, &f); err != nil {
		panic(fmt.Sprintf("provider: embedded programs invalid: %v", err))
	}
	return f
}
