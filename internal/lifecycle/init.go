package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/shinji-kodama/worktree-slots/internal/envtmpl"
	"github.com/shinji-kodama/worktree-slots/internal/logging"
	"github.com/shinji-kodama/worktree-slots/internal/model"
	"github.com/shinji-kodama/worktree-slots/internal/registry"
	"github.com/shinji-kodama/worktree-slots/internal/slots"
)

// InitOptions describes the configuration `init` scaffolds.
type InitOptions struct {
	// Slots is the number of slots to declare.
	Slots int

	// Format selects the slot config syntax and shape.
	Format slots.Format

	// PortVars maps port variables to their base; slot i gets base+i.
	PortVars map[string]int

	// StaticVars are declared with the same value in every slot.
	StaticVars map[string]string

	// EnvFiles are env files of the main checkout (relative to it) that
	// are turned into templates.
	EnvFiles []string

	// SlotVars are the variables templated as {{NAME}}. Empty means every
	// declared slot variable.
	SlotVars []string

	// CopyVars are the variables templated as {{COPY:NAME}}.
	CopyVars []string

	// AutoGrow enables slot growth in the generated config.
	AutoGrow bool

	// Force overwrites an existing slot config and registry.
	Force bool
}

// InitResult lists what Init wrote.
type InitResult struct {
	RepoName     string         `json:"repoName"`
	Slots        []model.SlotID `json:"slots"`
	ConfigPath   string         `json:"configPath"`
	SchemaPath   string         `json:"schemaPath"`
	Templates    []string       `json:"templates"`
	RegistryPath string         `json:"registryPath"`
}

// Init scaffolds the slot config, its JSON schema, env templates and an
// empty registry.
//
// It refuses to run when a slot config or registry already exists unless
// Force is set, since the registry holds the only record of which slot
// each worktree uses.
func (s *Service) Init(ctx context.Context, opts InitOptions) (*InitResult, error) {
	lay := s.Layout

	if !opts.Force {
		if path, _, err := slots.FindFile(lay.ConfigDir); err == nil {
			return nil, fmt.Errorf("slot config %s: %w (use --force to overwrite)", path, model.ErrAlreadyExists)
		}
		if registry.Exists(lay.WorktreesDir) {
			return nil, fmt.Errorf("registry %s: %w (use --force to overwrite)", registry.Path(lay.WorktreesDir), model.ErrAlreadyExists)
		}
	}

	cfg, err := slots.Scaffold(slots.ScaffoldOptions{
		Count:     opts.Slots,
		Format:    opts.Format,
		PortBases: opts.PortVars,
		Static:    opts.StaticVars,
		AutoGrow:  opts.AutoGrow,
	})
	if err != nil {
		return nil, err
	}

	// A forced init in another format must not leave the old file behind,
	// because the lookup order would keep finding it first.
	if opts.Force {
		if path, _, err := slots.FindFile(lay.ConfigDir); err == nil && filepath.Base(path) != cfg.Format.FileName() {
			if err := os.Remove(path); err != nil {
				return nil, fmt.Errorf("failed to remove old slot config %s: %w", path, err)
			}
			logging.UserInfo("Removed %s", filepath.Base(path))
		}
	}

	if err := slots.Write(lay.ConfigDir, cfg); err != nil {
		return nil, err
	}
	logging.UserSuccess("Created %s", filepath.Base(cfg.Path))

	if err := slots.WriteSchema(lay.ConfigDir, cfg.Format.Shape); err != nil {
		return nil, fmt.Errorf("failed to write schema: %w", err)
	}
	logging.UserSuccess("Created %s", slots.SchemaFileName)

	templates, err := s.writeTemplates(cfg, opts)
	if err != nil {
		return nil, err
	}

	repoName := s.Git.RepoName(lay.RepoRoot)
	ids := cfg.IDs()
	reg := registry.CreateForSlots(repoName, ids)
	if numberedFromOne(ids) {
		reg = registry.CreateEmpty(repoName, len(ids))
	}
	if err := registry.Write(lay.WorktreesDir, reg); err != nil {
		return nil, err
	}
	logging.UserSuccess("Created %s", registry.FileName)

	return &InitResult{
		RepoName:     repoName,
		Slots:        ids,
		ConfigPath:   cfg.Path,
		SchemaPath:   filepath.Join(lay.ConfigDir, slots.SchemaFileName),
		Templates:    templates,
		RegistryPath: registry.Path(lay.WorktreesDir),
	}, nil
}

// writeTemplates converts each env file into config/<name>.template.
func (s *Service) writeTemplates(cfg *slots.SlotsConfig, opts InitOptions) ([]string, error) {
	slotVars := opts.SlotVars
	if len(slotVars) == 0 {
		slotVars = cfg.VariableNames()
	}

	var written []string
	for _, name := range opts.EnvFiles {
		src := name
		if !filepath.IsAbs(src) {
			src = filepath.Join(s.Layout.RepoRoot, name)
		}
		content, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", name, err)
		}

		tmpl := envtmpl.GenerateTemplate(string(content), slotVars, opts.CopyVars)
		out := filepath.Base(src) + envtmpl.TemplateSuffix
		if err := os.WriteFile(filepath.Join(s.Layout.ConfigDir, out), []byte(tmpl), 0644); err != nil {
			return nil, fmt.Errorf("failed to write template %s: %w", out, err)
		}
		logging.UserSuccess("Created %s", out)
		written = append(written, out)
	}
	sort.Strings(written)
	return written, nil
}

// numberedFromOne reports whether ids are exactly "1".."n".
func numberedFromOne(ids []model.SlotID) bool {
	for i, id := range ids {
		if n, ok := id.Number(); !id.IsNumeric() || !ok || n != i+1 {
			return false
		}
	}
	return len(ids) > 0
}
