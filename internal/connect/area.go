package connect

import (
	"context"
	"fmt"

	"github.com/muurk/frisquet/internal/logging"
	"github.com/muurk/frisquet/internal/protocol"
	"github.com/muurk/frisquet/internal/schedule"
	"go.uber.org/zap"
)

// WriteArea reads the boiler clock to resolve the current comfort tier, then
// writes program as the zone program. It returns the body that was sent.
func (s *Session) WriteArea(ctx context.Context, program *schedule.Program) (*protocol.AreaBody, error) {
	_, now, err := s.Date(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read boiler clock: %w", err)
	}

	body, err := program.AreaBody(now)
	if err != nil {
		return nil, err
	}
	logging.Info("Writing area program",
		zap.Stringer("program", body),
		zap.Stringer("boiler_time", now),
	)

	if _, err := s.WriteProgram(ctx, body); err != nil {
		return body, err
	}
	return body, nil
}
