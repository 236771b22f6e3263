package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shinji-kodama/worktree-slots/internal/envtmpl"
	"github.com/shinji-kodama/worktree-slots/internal/model"
	"github.com/shinji-kodama/worktree-slots/internal/registry"
	"github.com/shinji-kodama/worktree-slots/internal/slots"
)

// ValidateResult holds the problems found by Validate.
type ValidateResult struct {
	ConfigPath       string   `json:"configPath"`
	ConfigProblems   []string `json:"configProblems"`
	RegistryProblems []string `json:"registryProblems"`
	TemplateProblems []string `json:"templateProblems"`

	// TemplateWarnings lists {{COPY:NAME}} values the root env files do
	// not provide. They render empty and do not fail validation.
	TemplateWarnings []string `json:"templateWarnings"`
}

// OK reports whether no problem was found.
func (r *ValidateResult) OK() bool {
	return len(r.ConfigProblems) == 0 && len(r.RegistryProblems) == 0 && len(r.TemplateProblems) == 0
}

// ProblemCount is the number of problems that fail validation.
func (r *ValidateResult) ProblemCount() int {
	return len(r.ConfigProblems) + len(r.RegistryProblems) + len(r.TemplateProblems)
}

// Validate checks the slot config and the registry, and that both
// declare the same slots. Problems are collected, not returned as errors;
// an error means a file could not be read at all.
func (s *Service) Validate(ctx context.Context) (*ValidateResult, error) {
	cfg, err := s.loadSlots()
	if err != nil {
		return nil, err
	}
	reg, err := s.loadRegistry()
	if err != nil {
		return nil, err
	}

	result := &ValidateResult{
		ConfigPath:       cfg.Path,
		ConfigProblems:   slots.Validate(cfg),
		RegistryProblems: append(registry.CheckUnique(reg), crossCheck(reg, cfg)...),
	}
	if err := s.checkTemplates(cfg, result); err != nil {
		return nil, err
	}
	return result, nil
}

// checkTemplates reports slot placeholders that no slot defines, and copy
// placeholders missing from the root env files.
func (s *Service) checkTemplates(cfg *slots.SlotsConfig, result *ValidateResult) error {
	templates, err := envtmpl.TemplateFiles(s.Layout.ConfigDir)
	if err != nil || len(templates) == 0 {
		return err
	}

	envFiles, err := envtmpl.RootEnvFiles(s.Layout.RepoRoot, cfg.CopyFromRootRepo)
	if err != nil {
		return err
	}
	rootEnv, err := envtmpl.LoadRootEnv(envFiles)
	if err != nil {
		return err
	}

	defined := make(map[string]bool)
	for _, name := range cfg.VariableNames() {
		defined[name] = true
	}

	for _, path := range templates {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", path, err)
		}
		name := filepath.Base(path)
		for _, v := range envtmpl.ExtractSlotVars(string(content)) {
			if !defined[v] {
				result.TemplateProblems = append(result.TemplateProblems,
					fmt.Sprintf("Template %s uses {{%s}}, which no slot defines", name, v))
			}
		}
		for _, v := range envtmpl.ExtractCopyVars(string(content)) {
			if _, ok := rootEnv[v]; !ok {
				result.TemplateWarnings = append(result.TemplateWarnings,
					fmt.Sprintf("Template %s uses {{COPY:%s}}, which is not in the root repo env files", name, v))
			}
		}
	}
	return nil
}

// crossCheck reports slots known to only one of the two files. A
// registry slot without config gets an empty config on create; a config
// slot missing from the registry is never handed out.
func crossCheck(reg *model.WorktreeRegistry, cfg *slots.SlotsConfig) []string {
	var problems []string

	inRegistry := make(map[model.SlotID]bool, len(reg.Assignments))
	for _, a := range reg.Assignments {
		inRegistry[a.Slot] = true
		if cfg.Get(a.Slot) == nil {
			problems = append(problems, fmt.Sprintf("Slot %s is in the registry but not in the slot config", a.Slot))
		}
	}
	for _, id := range cfg.IDs() {
		if !inRegistry[id] {
			problems = append(problems, fmt.Sprintf("Slot %s is in the slot config but not in the registry", id))
		}
	}
	return problems
}
