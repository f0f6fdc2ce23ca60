// Package reputation implements the trust, credit, and role-promotion engine.
//
// Raw user actions flow in through two entry points: RecordAction appends to
// the behavior log and runs the anomaly detector, AwardCredit appends to the
// credit ledger and bumps the cached balance. AwardCredit triggers a
// promotion evaluation, RecordAction triggers a trust recomputation, and an
// anomalous action triggers a SPAM_DETECTED credit penalty. The cascade depth
// is bounded at one: the penalty award never re-enters RecordAction, and
// promotion/trust derivations trigger nothing further.
//
// Secondary effects (promotion, trust, penalty) are best-effort: their
// failures are logged and never fail the primary ledger or behavior write.
package reputation

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/mahaoyang/nuxtcom/internal/config"
)

// Service is the reputation engine. All methods are safe for concurrent use;
// per-user read-modify-write sequences are serialized through database
// transactions and SQL-side increments rather than process-local locks.
type Service struct {
	db     *gorm.DB
	policy config.PolicyConfig
	log    *slog.Logger

	// promoted, when set, is called after a successful role change.
	// The server uses it to invalidate the authorization profile cache.
	promoted func(userID uint)
}

// New creates a reputation engine over the given database handle.
// A nil logger defaults to slog.Default().
func New(db *gorm.DB, policy config.PolicyConfig, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{db: db, policy: policy, log: log}
}

// OnPromotion registers a callback invoked after each applied role change.
func (s *Service) OnPromotion(fn func(userID uint)) {
	s.promoted = fn
}
