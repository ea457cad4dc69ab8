// Package registry is the per-engine context that owns the component table, the combination registry and the
// GPU-mirrored object tables, and synchronizes every table once per frame.
package registry

import (
	"github.com/Carmen-Shannon/oxy-registry/common"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/gpu_mirror"
)

// Record is an object stored in an ObjectTable. Mutators call the notifier installed by the table so the
// record is re-serialized during the next Sync.
type Record interface {
	common.Slotted

	// SetNotifier installs (or clears, when nil) the change notifier.
	//
	// Parameters:
	//   - n: the notifier
	SetNotifier(n common.DirtyNotifier)

	// Serialize writes the record's GPU-visible fields through w.
	//
	// Parameters:
	//   - w: a writer bound to the record's slot
	//
	// Returns:
	//   - error: an error if a field does not fit the table's layout
	Serialize(w gpu_mirror.RecordWriter) error
}

// Featured is implemented by records whose feature names select a shader/pipeline variant.
// The table interns the features when the record is added.
type Featured interface {
	// Features returns the names of the components the record uses.
	Features() []string

	// SetCombinationID stores the interned combination of the record's features.
	SetCombinationID(id common.CombinationID)
}
