package usecase

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/block"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
)

type Mode string

const (
	// ModeEnforce rejects writes to blocked items.
	ModeEnforce Mode = "enforce"
	// ModeAdvisory logs the block and lets the write through.
	ModeAdvisory Mode = "advisory"
)

// ParseMode falls back to ModeEnforce for unknown values.
func ParseMode(s string) Mode {
	if Mode(s) == ModeAdvisory {
		return ModeAdvisory
	}
	return ModeEnforce
}

type Gate struct {
	repo   block.Repository
	mode   Mode
	logger logger.ZapLogger
}

func NewGate(repo block.Repository, mode Mode, log logger.ZapLogger) *Gate {
	return &Gate{repo: repo, mode: mode, logger: log}
}

// Check reads through the transaction in ctx, so it sees blocks committed
// before the caller took the item lock.
func (g *Gate) Check(ctx context.Context, qrCode string) error {
	b, err := g.repo.GetActive(ctx, qrCode)
	if err != nil {
		return apperr.Storage(err, "failed to check block for %s", qrCode)
	}
	if b == nil {
		return nil
	}
	if g.mode == ModeAdvisory {
		g.logger.Warn("writing to blocked item",
			zap.String("qr_code", qrCode),
			zap.Int64("block_id", b.ID),
			zap.String("block_type", string(b.BlockType)),
		)
		return nil
	}
	return apperr.Blocked(qrCode, b.ID)
}

var _ block.Checker = (*Gate)(nil)
