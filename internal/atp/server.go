package atp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/emergent-company/orgtwin/internal/model"
)

func modelValidationErr(err error) error {
	return model.Wrap(model.ErrValidation, err, "parsing request")
}

// Server runs the dispatcher over the line-delimited stdio transport
// (spec.md §6.1): one JSON request per line in, one JSON response per
// line out.
type Server struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewServer constructs a stdio ATP server over d.
func NewServer(d *Dispatcher, logger *slog.Logger) *Server {
	return &Server{dispatcher: d, logger: logger}
}

// Run reads requests from stdin and writes responses to stdout until
// stdin closes or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)
	encoder := json.NewEncoder(os.Stdout)

	s.logger.Info("orgtwin atp server started")

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		resp := s.handleLine(ctx, line)
		if err := encoder.Encode(resp); err != nil {
			s.logger.Error("failed to write response", "error", err)
			return fmt.Errorf("writing response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		return fmt.Errorf("reading stdin: %w", err)
	}
	s.logger.Info("orgtwin atp server stopped (stdin closed)")
	return nil
}

func (s *Server) handleLine(ctx context.Context, line []byte) any {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return NewErrorResponse(modelValidationErr(err))
	}
	result, _ := s.dispatcher.Call(ctx, req)
	return result
}
