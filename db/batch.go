package db

import (
	"fmt"

	"github.com/mezonai/runtime/logx"
)

// WriteBatch collects the writes made by fill into one batch and commits them atomically.
// Nothing is written when fill fails.
func WriteBatch(provider DatabaseProvider, fill func(batch DatabaseBatch) error) error {
	batch := provider.Batch()
	defer func() {
		if err := batch.Close(); err != nil {
			logx.Error("DB", "Failed to close batch: ", err)
		}
	}()

	if err := fill(batch); err != nil {
		batch.Reset()
		return fmt.Errorf("batch aborted: %w", err)
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("batch commit failed: %w", err)
	}
	return nil
}
