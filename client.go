package clipclean

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"time"

	"gitlab.com/tozd/go/errors"
)

// SocketClient talks to a running SocketServer. It implements TextProcessor,
// so collaborators use the same interface whether they run the engine
// in-process or share one with other clients. Calls are serialized over the
// single connection.
type SocketClient struct {
	mu   sync.Mutex
	conn net.Conn
}

var _ TextProcessor = (*SocketClient)(nil)

// NewSocketClient connects to a running socket server
func NewSocketClient(ctx context.Context, socketPath string) (*SocketClient, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, errors.Errorf("connecting to socket server at %s: %w", socketPath, err)
	}
	return &SocketClient{conn: conn}, nil
}

// Close closes the connection to the socket server
func (sc *SocketClient) Close() error {
	if sc.conn != nil {
		return sc.conn.Close()
	}
	return nil
}

// Execute sends one command and returns the raw result of a successful
// response. A response with success=false is returned as an error carrying
// the server's message.
func (sc *SocketClient) Execute(ctx context.Context, action string, params map[string]interface{}) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Errorf("%s: %w", action, err)
	}
	if params == nil {
		params = map[string]interface{}{}
	}
	cmdJSON, err := json.Marshal(Command{Action: action, Params: params})
	if err != nil {
		return nil, errors.Errorf("encoding %s command: %w", action, err)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	// A zero deadline clears any earlier one
	deadline, _ := ctx.Deadline()
	if err := sc.conn.SetDeadline(deadline); err != nil {
		return nil, errors.Errorf("setting deadline: %w", err)
	}

	// Unblock the exchange when ctx is cancelled without a deadline
	stop := context.AfterFunc(ctx, func() {
		sc.conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := writeMessage(sc.conn, cmdJSON); err != nil {
		return nil, sc.transportError(ctx, action, err)
	}
	data, err := readMessage(sc.conn)
	if err != nil {
		return nil, sc.transportError(ctx, action, err)
	}

	var resp struct {
		Success bool            `json:"success"`
		Result  json.RawMessage `json:"result"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Errorf("parsing %s response: %w", action, err)
	}
	if !resp.Success {
		if resp.Error == "" {
			return nil, errors.Errorf("%s failed with unknown error", action)
		}
		return nil, errors.Errorf("%s: %s", action, resp.Error)
	}
	return resp.Result, nil
}

func (sc *SocketClient) transportError(ctx context.Context, action string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Errorf("%s: %w", action, ctxErr)
	}
	return errors.Errorf("socket error during %s: %w", action, err)
}

// call executes a command and decodes its result into out
func (sc *SocketClient) call(ctx context.Context, action string, params map[string]interface{}, out interface{}) error {
	result, err := sc.Execute(ctx, action, params)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(result, out); err != nil {
		return errors.Errorf("decoding %s result: %w", action, err)
	}
	return nil
}

// ============================================================================
// Text Processing Methods
// ============================================================================

func (sc *SocketClient) Process(ctx context.Context, text string, mode ProcessingMode, opts *ProcessingOptions) (string, error) {
	params := map[string]interface{}{
		"text": text,
		"mode": string(mode),
	}
	if opts != nil {
		params["options"] = opts
	}

	var result struct {
		Output string `json:"output"`
	}
	if err := sc.call(ctx, "process", params, &result); err != nil {
		return "", err
	}
	return result.Output, nil
}

func (sc *SocketClient) ExecutePreset(ctx context.Context, ref, text string) (string, error) {
	var result struct {
		Output string `json:"output"`
	}
	err := sc.call(ctx, "execute_preset", map[string]interface{}{
		"preset": ref,
		"text":   text,
	}, &result)
	if err != nil {
		return "", err
	}
	return result.Output, nil
}

func (sc *SocketClient) CountCharacters(ctx context.Context, text string) (int, error) {
	var result struct {
		Count int `json:"count"`
	}
	if err := sc.call(ctx, "count_characters", map[string]interface{}{"text": text}, &result); err != nil {
		return 0, err
	}
	return result.Count, nil
}

func (sc *SocketClient) ExtractLinks(ctx context.Context, html string) ([]Link, error) {
	var result struct {
		Links []Link `json:"links"`
	}
	if err := sc.call(ctx, "extract_links", map[string]interface{}{"html": html}, &result); err != nil {
		return nil, err
	}
	return result.Links, nil
}

// ============================================================================
// Catalog and Preset Methods
// ============================================================================

func (sc *SocketClient) ListModes(ctx context.Context) ([]ModeInfo, error) {
	var result struct {
		Modes []ModeInfo `json:"modes"`
	}
	if err := sc.call(ctx, "list_modes", nil, &result); err != nil {
		return nil, err
	}
	return result.Modes, nil
}

func (sc *SocketClient) ListPresets(ctx context.Context) ([]*ProcessingPreset, error) {
	var result struct {
		Presets []*ProcessingPreset `json:"presets"`
	}
	if err := sc.call(ctx, "list_presets", nil, &result); err != nil {
		return nil, err
	}
	return result.Presets, nil
}

func (sc *SocketClient) GetPreset(ctx context.Context, ref string) (*ProcessingPreset, error) {
	return sc.presetCall(ctx, "get_preset", ref)
}

func (sc *SocketClient) ClonePreset(ctx context.Context, ref string) (*ProcessingPreset, error) {
	return sc.presetCall(ctx, "clone_preset", ref)
}

func (sc *SocketClient) SavePreset(ctx context.Context, preset *ProcessingPreset) (*ProcessingPreset, error) {
	if preset == nil {
		return nil, errors.Errorf("%w: preset is nil", ErrInvalidArgument)
	}
	var result struct {
		Preset *ProcessingPreset `json:"preset"`
	}
	if err := sc.call(ctx, "save_preset", map[string]interface{}{"preset": preset}, &result); err != nil {
		return nil, err
	}
	return result.Preset, nil
}

func (sc *SocketClient) DeletePreset(ctx context.Context, ref string) error {
	return sc.call(ctx, "delete_preset", map[string]interface{}{"preset": ref}, nil)
}

func (sc *SocketClient) presetCall(ctx context.Context, action, ref string) (*ProcessingPreset, error) {
	var result struct {
		Preset *ProcessingPreset `json:"preset"`
	}
	if err := sc.call(ctx, action, map[string]interface{}{"preset": ref}, &result); err != nil {
		return nil, err
	}
	return result.Preset, nil
}
