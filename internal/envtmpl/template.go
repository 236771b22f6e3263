package envtmpl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shinji-kodama/worktree-slots/internal/slots"
)

// placeholderRe matches both placeholder kinds in one pass. Group 1 is the
// optional "COPY:" marker, group 2 the variable name.
var placeholderRe = regexp.MustCompile(`\{\{(COPY:)?([A-Z_][A-Z0-9_]*)\}\}`)

// envLineRe matches NAME=value lines in env files.
var envLineRe = regexp.MustCompile(`^\s*([A-Z_][A-Z0-9_]*)=(.*)$`)

// ProcessTemplate substitutes placeholders in tmpl.
//
//   - {{NAME}} takes the slot's value. Without a slot configuration, or when
//     the slot has no such variable, the token is left as is.
//   - {{COPY:NAME}} takes the value from rootEnv. A missing value becomes
//     the empty string.
//
// Substituted values are never scanned again, so a value containing "{{X}}"
// stays literal. One warning is returned per unresolved token; warnings
// about slot variables come before warnings about copy variables.
func ProcessTemplate(tmpl string, slot *slots.SlotConfig, rootEnv map[string]string) (string, []string) {
	var slotWarnings, copyWarnings []string

	out := placeholderRe.ReplaceAllStringFunc(tmpl, func(token string) string {
		m := placeholderRe.FindStringSubmatch(token)
		isCopy, name := m[1] != "", m[2]

		if isCopy {
			if v, ok := rootEnv[name]; ok {
				return v
			}
			copyWarnings = append(copyWarnings, fmt.Sprintf("{{COPY:%s}} not found in root repo env files, leaving empty", name))
			return ""
		}

		if slot == nil {
			slotWarnings = append(slotWarnings, fmt.Sprintf("no slot config available for {{%s}}", name))
			return token
		}
		v, ok := slot.Lookup(name)
		if !ok {
			slotWarnings = append(slotWarnings, fmt.Sprintf("template has {{%s}} but it is not defined in the slot config", name))
			return token
		}
		return v.String()
	})

	return out, append(slotWarnings, copyWarnings...)
}

// ExtractSlotVars returns the distinct {{NAME}} variables referenced in
// content, in order of first appearance.
func ExtractSlotVars(content string) []string {
	return extract(content, false)
}

// ExtractCopyVars returns the distinct {{COPY:NAME}} variables referenced
// in content, in order of first appearance.
func ExtractCopyVars(content string) []string {
	return extract(content, true)
}

func extract(content string, copyVars bool) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(content, -1) {
		if (m[1] != "") != copyVars || seen[m[2]] {
			continue
		}
		seen[m[2]] = true
		names = append(names, m[2])
	}
	return names
}

// GenerateTemplate turns an existing env file into a template: lines
// assigning a variable listed in slotVars become NAME={{NAME}}, lines
// assigning a variable in copyVars become NAME={{COPY:NAME}}, and every
// other line is kept verbatim.
func GenerateTemplate(content string, slotVars, copyVars []string) string {
	slotSet := toSet(slotVars)
	copySet := toSet(copyVars)

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		m := envLineRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		switch name := m[1]; {
		case slotSet[name]:
			lines[i] = fmt.Sprintf("%s={{%s}}", name, name)
		case copySet[name]:
			lines[i] = fmt.Sprintf("%s={{COPY:%s}}", name, name)
		}
	}
	return strings.Join(lines, "\n")
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
