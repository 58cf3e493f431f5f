// Package plume is the Composition Root for the Plume notes manager.
//
// It connects the document model (pkg/core, pkg/richtext), the file format
// (pkg/codec, pkg/crypto) and the search engine (pkg/search) with the
// filesystem store, exposing an editing session as a *Notebook.
//
// Features:
//
//   - **Tree of Notes**: titled nodes with tags, rich text, icons and fonts.
//   - **Single Portable File**: an XML document written atomically.
//   - **Password Protection**: PBKDF2 + AES-GCM envelope with a verifier
//     that tells a wrong password apart from a damaged file.
//   - **Search & Replace**: across titles, tags and bodies, keeping the
//     formatting of untouched text.
//   - **Undo/Redo**: every edit is a command with an inverse.
//
// Usage:
//
//	nb, err := plume.Open(ctx, "notes.fnx", password,
//		plume.WithLogger(logger),
//		plume.WithAutosave(5*time.Minute),
//	)
//
//	res, err := nb.ReplaceAll(plume.Query{Pattern: "todo", Scope: search.ScopeEverywhere}, "done")
package plume
