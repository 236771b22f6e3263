package envtmpl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/worktree-slots/internal/slots"
)

func testSlot() *slots.SlotConfig {
	return &slots.SlotConfig{ID: "1", Values: map[string]slots.Value{
		"PORT":    slots.IntValue(3001),
		"DB_NAME": slots.StringValue("app_1"),
		"TRICKY":  slots.StringValue("{{PORT}}"),
	}}
}

// TestProcessTemplate covers substitution and each warning kind.
func TestProcessTemplate(t *testing.T) {
	tests := []struct {
		name     string
		tmpl     string
		slot     *slots.SlotConfig
		rootEnv  map[string]string
		output   string
		warnings []string
	}{
		{
			name:   "single slot variable",
			tmpl:   "PORT={{PORT}}",
			slot:   &slots.SlotConfig{ID: "1", Values: map[string]slots.Value{"PORT": slots.IntValue(3001)}},
			output: "PORT=3001",
		},
		{
			name:    "slot and copy variables",
			tmpl:    "PORT={{PORT}}\nDB={{DB_NAME}}\nKEY={{COPY:API_KEY}}\n",
			slot:    testSlot(),
			rootEnv: map[string]string{"API_KEY": "secret"},
			output:  "PORT=3001\nDB=app_1\nKEY=secret\n",
		},
		{
			name:     "missing slot variable stays",
			tmpl:     "X={{MISSING}}",
			slot:     testSlot(),
			output:   "X={{MISSING}}",
			warnings: []string{"template has {{MISSING}} but it is not defined in the slot config"},
		},
		{
			name:     "no slot config",
			tmpl:     "PORT={{PORT}}",
			output:   "PORT={{PORT}}",
			warnings: []string{"no slot config available for {{PORT}}"},
		},
		{
			name:     "missing copy variable becomes empty",
			tmpl:     "KEY={{COPY:API_KEY}}",
			slot:     testSlot(),
			output:   "KEY=",
			warnings: []string{"{{COPY:API_KEY}} not found in root repo env files, leaving empty"},
		},
		{
			// Copy warnings come last even when the copy token appears first.
			name:   "warning order and repeats",
			tmpl:   "{{COPY:A}} {{B}} {{B}}",
			slot:   testSlot(),
			output: " {{B}} {{B}}",
			warnings: []string{
				"template has {{B}} but it is not defined in the slot config",
				"template has {{B}} but it is not defined in the slot config",
				"{{COPY:A}} not found in root repo env files, leaving empty",
			},
		},
		{
			name:    "substituted values are not rescanned",
			tmpl:    "A={{TRICKY}} B={{COPY:NESTED}}",
			slot:    testSlot(),
			rootEnv: map[string]string{"NESTED": "{{PORT}}"},
			output:  "A={{PORT}} B={{PORT}}",
		},
		{
			name:   "lowercase and malformed tokens are ignored",
			tmpl:   "{{port}} {{ PORT }} {{COPY:}}",
			slot:   testSlot(),
			output: "{{port}} {{ PORT }} {{COPY:}}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, warnings := ProcessTemplate(tt.tmpl, tt.slot, tt.rootEnv)
			assert.Equal(t, tt.output, out)
			assert.Equal(t, tt.warnings, warnings)
		})
	}
}

// TestProcessTemplate_WarningCount checks one warning per unresolved token.
func TestProcessTemplate_WarningCount(t *testing.T) {
	tmpl := "{{A}}{{PORT}}{{COPY:X}}{{COPY:Y}}{{COPY:Y}}{{C}}"
	_, warnings := ProcessTemplate(tmpl, testSlot(), map[string]string{"X": "1"})
	assert.Len(t, warnings, 4)
}

func TestExtractVars(t *testing.T) {
	content := "A={{WEB_PORT}}\nB={{COPY:SECRET}}\nC={{WEB_PORT}}{{DB_PORT}}\nD={{COPY:SECRET}}{{COPY:TOKEN}}"
	assert.Equal(t, []string{"WEB_PORT", "DB_PORT"}, ExtractSlotVars(content))
	assert.Equal(t, []string{"SECRET", "TOKEN"}, ExtractCopyVars(content))
	assert.Empty(t, ExtractSlotVars("no placeholders"))
}

// TestGenerateTemplate verifies the reverse direction and that generated
// templates extract back to the same variable lists.
func TestGenerateTemplate(t *testing.T) {
	env := "# app\nWEB_PORT=3000\nAPI_KEY=abc\nDEBUG=true\n"
	tmpl := GenerateTemplate(env, []string{"WEB_PORT"}, []string{"API_KEY"})

	assert.Equal(t, "# app\nWEB_PORT={{WEB_PORT}}\nAPI_KEY={{COPY:API_KEY}}\nDEBUG=true\n", tmpl)
	assert.Equal(t, []string{"WEB_PORT"}, ExtractSlotVars(tmpl))
	assert.Equal(t, []string{"API_KEY"}, ExtractCopyVars(tmpl))

	assert.Equal(t, "WEB_PORT={{WEB_PORT}}", GenerateTemplate("  WEB_PORT=3000", []string{"WEB_PORT"}, nil))
}

func TestReadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\n\nPLAIN=value\nDQ=\"quoted value\"\nSQ='single'\nEMPTY=\n" +
		"  INDENTED=1\nexport EXPORTED=yes\nURL=postgres://a:b@h/db?x=1\r\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	vars, err := ReadEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"PLAIN":    "value",
		"DQ":       "quoted value",
		"SQ":       "single",
		"EMPTY":    "",
		"INDENTED": "1",
		"EXPORTED": "yes",
		"URL":      "postgres://a:b@h/db?x=1",
	}, vars)

	missing, err := ReadEnvFile(filepath.Join(dir, "nope"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestReadEnvFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BROKEN=\"never closed\n"), 0644))

	_, err := ReadEnvFile(path)
	assert.Error(t, err)
}

// TestRootEnvFiles verifies discovery rules and explicit configuration.
func TestRootEnvFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{".env", ".env.local", ".env.template", ".env.example", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("A=1\n"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".envdir"), 0755))

	files, err := RootEnvFiles(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, ".env"), filepath.Join(dir, ".env.local")}, files)

	files, err = RootEnvFiles(dir, []string{".env.local"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, ".env.local")}, files)
}

// TestLoadRootEnv verifies later files override earlier ones.
func TestLoadRootEnv(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, ".env")
	second := filepath.Join(dir, ".env.local")
	require.NoError(t, os.WriteFile(first, []byte("A=1\nB=1\n"), 0644))
	require.NoError(t, os.WriteFile(second, []byte("B=2\n"), 0644))

	env, err := LoadRootEnv([]string{first, second, filepath.Join(dir, "missing")})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, env)

	none, err := LoadRootEnv([]string{filepath.Join(dir, "missing")})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTemplateFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{".env.template", ".env.local.template", "slots.yaml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	files, err := TemplateFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, ".env.local.template"),
		filepath.Join(dir, ".env.template"),
	}, files)
	assert.Equal(t, ".env.local", OutputName(files[0]))

	none, err := TemplateFiles(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, none)
}
