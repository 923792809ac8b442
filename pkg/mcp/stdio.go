package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

const maxStdioMessage = 4 << 20

// ServeStdio reads newline-delimited JSON-RPC messages from in and writes
// responses to out, one per line, until in is exhausted or ctx is done.
// Nothing but protocol messages is ever written to out.
//
// When ctx is done ServeStdio returns at once, but the reader goroutine stays
// blocked in a read on in until in yields data, EOF or an error. Callers that
// need it gone must close in; for os.Stdin the process exit does that.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStdioMessage)

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	s.logger.Info("MCP stdio server started", zap.String("server", ServerName))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("read stdin: %w", err)
					}
				default:
				}
				s.logger.Info("MCP stdio input closed")
				return nil
			}
			if len(line) == 0 {
				continue
			}

			resp := s.HandleMessage(ctx, line)
			if resp == nil {
				continue
			}

			if err := enc.Encode(resp); err != nil {
				if errors.Is(err, io.ErrClosedPipe) {
					return nil
				}
				return fmt.Errorf("write response: %w", err)
			}
		}
	}
}
