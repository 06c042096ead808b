package layers

// Commands is the reversible-edit and durability namespace of a store.
type Commands struct {
	store *Store
}

// Commands returns the command namespace.
func (s *Store) Commands() Commands {
	return Commands{store: s}
}

// Command is a feature mutation packaged with its own inverse. Run applies
// the captured "after" document; Inverse returns the command with before and
// after swapped, so
//
//	cmd.Run()
//	cmd.Inverse().Run()
//
// restores the captured prior value.
type Command struct {
	store     *Store
	layerID   string
	featureID string
	before    Document
	after     Document
}

// Update builds a reversible update of one feature. The feature's current
// value is captured as a deep copy at construction time, because the live
// projection is mutated in place afterwards.
func (c Commands) Update(layerID, featureID string, feature Document) Command {
	before, _ := c.store.Feature(layerID, featureID) // already a deep copy
	return Command{
		store:     c.store,
		layerID:   layerID,
		featureID: featureID,
		before:    before,
		after:     CloneDocument(feature),
	}
}

// Commit forces an immediate flush of one entity through the active adapter.
// Issuing it twice with no intervening mutation performs exactly one durable
// write; the adapter's sequence counters short-circuit the second.
func (c Commands) Commit(layerID string) *WriteResult {
	c.store.mu.Lock()
	closed := c.store.closed
	c.store.mu.Unlock()
	if closed {
		return CompletedWriteResult(ErrClosed)
	}
	return c.store.adapter.FlushEntity(layerID)
}

// Run applies the command's target value through UpdateFeature.
func (cmd Command) Run() {
	cmd.store.UpdateFeature(cmd.layerID, cmd.featureID, cmd.after)
}

// Inverse returns the undo command: current and new value swapped.
func (cmd Command) Inverse() Command {
	return Command{
		store:     cmd.store,
		layerID:   cmd.layerID,
		featureID: cmd.featureID,
		before:    cmd.after,
		after:     cmd.before,
	}
}
