// Package fragment caches rendered output fragments in a key-value backend.
//
// A caller marks a region of generated output with a Site (where the
// fragment is rendered) and a Discriminator (which variant of it). The
// engine derives a key, tests it against the backend and either replays the
// stored bytes or captures what the caller writes, stores it with a TTL and
// records the key in an index so that every fragment can later be purged in
// bulk.
//
//	eng, err := fragment.New(ctx, backend, fragment.Config{Enabled: true})
//	...
//	f, hit := eng.Begin(ctx, w, "widgets/most-commented.php:18", fragment.Block("sidebar"))
//	if !hit {
//	    defer f.Close()
//	    renderSidebar(f)
//	    _ = f.End()
//	}
//
// Render wraps the same flow around a function.
//
// Entries for key K are stored as K_key (the discriminator fingerprint) and
// K_content (the captured bytes), both under Config.Namespace. A Block
// discriminator appends its name to the key and stores an empty
// fingerprint; a Query discriminator keeps the bare site as key and stores
// the SHA-256 of its canonical JSON, so a changed value evicts the old
// entry on the next lookup.
//
// Backend failures never interrupt rendering: a failed read is a miss and a
// failed write is dropped.
package fragment
