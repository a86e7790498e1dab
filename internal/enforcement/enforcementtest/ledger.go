package enforcementtest

import (
	"github.com/PancyStudios/PancyGuard/internal/ledger"
	"github.com/PancyStudios/PancyGuard/pkg/clock"
	"github.com/PancyStudios/PancyGuard/pkg/database"
	"github.com/PancyStudios/PancyGuard/pkg/models"
)

// NewLedger returns a ledger backed by an in-memory store without cache
func NewLedger(clk clock.Clock) *ledger.Ledger {
	docs := database.NewDataManager[models.CaseLedger](ledger.Collection, database.NewMemoryStore(), nil)
	return ledger.New(docs, clk)
}
