package catalog

import "slices"

// Snapshot is the immutable result of one reconciliation pass.
type Snapshot struct {
	installed []ModelRef
	pullable  []ModelRef
	catalog   []ModelRef
	running   []ModelRef
	selected  string
}

// Installed returns the installed models in source order.
func (s *Snapshot) Installed() []ModelRef { return slices.Clone(s.installed) }

// Pullable returns the remotely pullable models, installed entries removed.
func (s *Snapshot) Pullable() []ModelRef { return slices.Clone(s.pullable) }

// Catalog returns the unfiltered browse-all listing.
func (s *Snapshot) Catalog() []ModelRef { return slices.Clone(s.catalog) }

// Running returns the models currently loaded by the inference engine.
func (s *Snapshot) Running() []ModelRef { return slices.Clone(s.running) }

// Selected returns the selected canonical id, or "".
func (s *Snapshot) Selected() string { return s.selected }

// Lookup finds a model by canonical id, preferring installed over pullable
// over catalog entries.
func (s *Snapshot) Lookup(id string) (ModelRef, bool) {
	id = CanonicalID(id)
	for _, list := range [][]ModelRef{s.installed, s.pullable, s.catalog, s.running} {
		for _, ref := range list {
			if ref.CanonicalID == id {
				return ref, true
			}
		}
	}
	return ModelRef{}, false
}

// withSelected returns a copy of s with a different selection. Lists are
// shared since neither copy ever mutates them.
func (s *Snapshot) withSelected(id string) *Snapshot {
	next := *s
	next.selected = id
	return &next
}

// buildSnapshot classifies raw source lists into a snapshot. selected is the
// caller's sticky selection; it is kept when non-empty.
func buildSnapshot(installed, pullable, catalog, running []ModelRef, selected string) *Snapshot {
	snap := &Snapshot{
		installed: dedupe(installed),
	}

	installedIDs := idSet(snap.installed)
	for i := range snap.installed {
		snap.installed[i].Kind = KindInstalled
	}

	for _, ref := range dedupe(pullable) {
		if _, ok := installedIDs[ref.CanonicalID]; ok {
			continue
		}
		ref.Kind = KindPullable
		snap.pullable = append(snap.pullable, ref)
	}
	pullableIDs := idSet(snap.pullable)

	classify := func(refs []ModelRef) []ModelRef {
		out := dedupe(refs)
		for i := range out {
			switch {
			case contains(installedIDs, out[i].CanonicalID):
				out[i].Kind = KindInstalled
			case contains(pullableIDs, out[i].CanonicalID):
				out[i].Kind = KindPullable
			default:
				out[i].Kind = KindCatalogOnly
			}
		}
		return out
	}
	snap.catalog = classify(catalog)
	snap.running = classify(running)

	snap.selected = selectDefault(selected, snap)
	return snap
}

// selectDefault keeps a sticky selection, else falls through installed then
// pullable.
func selectDefault(current string, snap *Snapshot) string {
	switch {
	case current != "":
		return current
	case len(snap.installed) > 0:
		return snap.installed[0].CanonicalID
	case len(snap.pullable) > 0:
		return snap.pullable[0].CanonicalID
	default:
		return ""
	}
}

// dedupe copies refs dropping repeated canonical ids, first occurrence wins.
func dedupe(refs []ModelRef) []ModelRef {
	if len(refs) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(refs))
	out := make([]ModelRef, 0, len(refs))
	for _, ref := range refs {
		if ref.CanonicalID == "" {
			continue
		}
		if _, dup := seen[ref.CanonicalID]; dup {
			continue
		}
		seen[ref.CanonicalID] = struct{}{}
		out = append(out, ref)
	}
	return out
}

func idSet(refs []ModelRef) map[string]struct{} {
	set := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		set[ref.CanonicalID] = struct{}{}
	}
	return set
}

func contains(set map[string]struct{}, id string) bool {
	_, ok := set[id]
	return ok
}
