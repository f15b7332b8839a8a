package reconcile

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/eventsync/internal/repository"
)

// DefaultBatchSize is the buffer length above which a partition flushes eagerly.
const DefaultBatchSize = 50

// PassContext carries everything scoped to a single sync pass. It is built
// once by the orchestrator and handed to the registry and its partitions.
type PassContext struct {
	ID         string
	AccountKey string
	// Now is the pass start; it splits past from future records.
	Now       time.Time
	Store     repository.LocalStore
	Log       *logrus.Entry
	BatchSize int
}

func (p *PassContext) batchSize() int {
	if p.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return p.BatchSize
}
