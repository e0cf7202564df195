package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/corroborate/internal/model"
)

// LoadInput reads a research input document. Files ending in .json are
// decoded as JSON, anything else as YAML.
func LoadInput(path string) (model.ResearchInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ResearchInput{}, fmt.Errorf("read input: %w", err)
	}
	input, err := DecodeInput(data, strings.EqualFold(filepath.Ext(path), ".json"))
	if err != nil {
		return model.ResearchInput{}, fmt.Errorf("%s: %w", path, err)
	}
	return input, nil
}

// DecodeInput decodes a research input from JSON or YAML bytes
func DecodeInput(data []byte, isJSON bool) (model.ResearchInput, error) {
	var input model.ResearchInput
	if isJSON {
		if err := json.Unmarshal(data, &input); err != nil {
			return input, fmt.Errorf("parse JSON input: %w", err)
		}
		return input, nil
	}
	if err := yaml.Unmarshal(data, &input); err != nil {
		return input, fmt.Errorf("parse YAML input: %w", err)
	}
	return input, nil
}

// LoadBranches reads a bare list of branch findings, or a full input
// document whose branches are used.
func LoadBranches(path string) ([]model.BranchFinding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read branches: %w", err)
	}

	var branches []model.BranchFinding
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&branches); err == nil || err == io.EOF {
		return branches, nil
	}

	input, err := DecodeInput(data, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return input.Branches, nil
}
