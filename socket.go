package clipclean

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// maxMessageSize bounds a single framed message.
const maxMessageSize = 16 << 20

// NotifyFunc receives the text of a transient notification, e.g. after the
// clipboard was rewritten by a process or execute_preset command.
type NotifyFunc func(message string)

// SocketServer manages the Unix domain socket interface for an Engine
type SocketServer struct {
	socketPath string
	engine     *Engine
	listener   net.Listener
	logger     zerolog.Logger
	mu         sync.Mutex
	done       chan struct{}
	stopped    chan struct{} // Closed when server has fully shut down
	stopOnce   sync.Once
	notifiers  []NotifyFunc
	conns      sync.WaitGroup
}

// NewSocketServer creates a new socket server instance
func NewSocketServer(socketPath string, engine *Engine, logger zerolog.Logger) *SocketServer {
	return &SocketServer{
		socketPath: socketPath,
		engine:     engine,
		logger:     logger.With().Str("socket", socketPath).Logger(),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		notifiers:  make([]NotifyFunc, 0),
	}
}

// OnNotify registers a function called after each command that produced a
// notification
func (ss *SocketServer) OnNotify(fn NotifyFunc) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.notifiers = append(ss.notifiers, fn)
}

// Start begins listening on the Unix domain socket
func (ss *SocketServer) Start() error {
	// Remove a stale socket file left by a previous run
	if err := os.Remove(ss.socketPath); err != nil && !os.IsNotExist(err) {
		return errors.Errorf("removing existing socket: %w", err)
	}

	listener, err := net.Listen("unix", ss.socketPath)
	if err != nil {
		return errors.Errorf("listening on socket %s: %w", ss.socketPath, err)
	}
	ss.listener = listener

	go ss.acceptConnections()

	ss.logger.Info().Msg("socket server listening")
	return nil
}

// acceptConnections accepts incoming connections (multiple clients supported)
func (ss *SocketServer) acceptConnections() {
	for {
		conn, err := ss.listener.Accept()
		if err != nil {
			select {
			case <-ss.done:
				return
			default:
				ss.logger.Error().Err(err).Msg("accepting connection")
				continue
			}
		}

		ss.conns.Add(1)
		go func() {
			defer ss.conns.Done()
			ss.handleClient(conn)
		}()
	}
}

// handleClient serves one client until it disconnects or the server stops
func (ss *SocketServer) handleClient(conn net.Conn) {
	defer conn.Close()

	ctx, cancel := context.WithCancel(ss.logger.WithContext(context.Background()))
	defer cancel()
	go func() {
		select {
		case <-ss.done:
			conn.Close()
		case <-ctx.Done():
		}
	}()

	for {
		data, err := readMessage(conn)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			select {
			case <-ss.done:
			default:
				ss.logger.Warn().Err(err).Msg("reading from client")
			}
			return
		}

		resp := ss.engine.HandleCommand(ctx, data)
		payload, err := json.Marshal(resp)
		if err != nil {
			payload, _ = json.Marshal(errorResponse("encoding response: " + err.Error()))
		}

		if err := writeMessage(conn, payload); err != nil {
			ss.logger.Warn().Err(err).Msg("writing to client")
			return
		}

		if resp.notice != "" {
			ss.notify(resp.notice)
		}
	}
}

func (ss *SocketServer) notify(message string) {
	ss.mu.Lock()
	notifiers := append([]NotifyFunc{}, ss.notifiers...)
	ss.mu.Unlock()
	for _, fn := range notifiers {
		fn(message)
	}
}

// Stop gracefully shuts down the socket server
func (ss *SocketServer) Stop() error {
	ss.stopOnce.Do(func() {
		close(ss.done)

		if ss.listener != nil {
			ss.listener.Close()
		}
		ss.conns.Wait()

		os.Remove(ss.socketPath)

		ss.logger.Info().Msg("socket server stopped")
		close(ss.stopped)
	})
	return nil
}

// Wait blocks until the server is fully shut down
func (ss *SocketServer) Wait() {
	<-ss.stopped
}

// ============================================================================
// Length-Prefixed Protocol Implementation
// ============================================================================

// readMessage reads one message framed as a 4-byte big-endian length
// followed by the payload
func readMessage(r io.Reader) ([]byte, error) {
	lengthBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, lengthBuf); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(lengthBuf)
	if length > maxMessageSize {
		return nil, errors.Errorf("message of %d bytes exceeds limit", length)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

// writeMessage writes one length-prefixed message
func writeMessage(w io.Writer, data []byte) error {
	if len(data) > maxMessageSize {
		return errors.Errorf("message of %d bytes exceeds limit", len(data))
	}

	frame := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(frame, uint32(len(data)))
	copy(frame[4:], data)

	_, err := w.Write(frame)
	return err
}
