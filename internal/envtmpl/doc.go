// Package envtmpl renders environment-file templates for a slot.
//
// Templates are ordinary env files with two placeholder kinds:
//
//	WEB_PORT={{WEB_PORT}}          ← value from the slot configuration
//	API_KEY={{COPY:API_KEY}}       ← value from the main checkout's .env files
//
// Rendering never fails. Unresolved placeholders are reported as warnings
// and the caller decides whether the partial output is good enough.
package envtmpl
