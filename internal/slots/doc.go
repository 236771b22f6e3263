// Package slots reads, validates, grows and writes the per-repository slot
// configuration: the user-declared variable values (ports, URLs, names)
// each slot's worktree is rendered with.
//
// Two file shapes are accepted and normalized to one SlotsConfig value:
//
//	# array shape (slots.yaml)
//	slots:
//	  - slot: 1
//	    WEB_PORT: 3001
//
//	// table shape (slots.config.jsonc)
//	{"copyFromRootRepo": [".env"], "slots": {"slot-1": {"WEB_PORT": 3001}}}
//
// Each shape can be written in YAML, JSON (with comments) or TOML. The
// syntax decoders produce a generic document; a Shape turns the document's
// "slots" entry into []SlotConfig. Nothing outside this package depends on
// which file format a repository uses.
package slots
