package clipclean

import (
	"context"
	"encoding/json"

	"gitlab.com/tozd/go/errors"
)

// Command represents a JSON command sent by a collaborator
type Command struct {
	Action string                 `json:"action"`
	Params map[string]interface{} `json:"params"`
}

// Response represents a JSON response from command execution
type Response struct {
	Success bool        `json:"success"`
	Result  interface{} `json:"result,omitempty"`
	Error   string      `json:"error,omitempty"`

	// notice is shown to the user by registered notifiers; never sent.
	notice string
}

// ExecuteCommand executes a JSON command and returns a JSON response
func (e *Engine) ExecuteCommand(ctx context.Context, cmdJSON string) string {
	return toJSON(e.HandleCommand(ctx, []byte(cmdJSON)))
}

// HandleCommand decodes and executes one command.
func (e *Engine) HandleCommand(ctx context.Context, data []byte) Response {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return errorResponse("Invalid JSON: " + err.Error())
	}

	switch cmd.Action {
	case "process":
		return e.cmdProcess(ctx, cmd.Params)
	case "execute_preset":
		return e.cmdExecutePreset(ctx, cmd.Params)
	case "count_characters":
		return e.cmdCountCharacters(ctx, cmd.Params)
	case "extract_links":
		return e.cmdExtractLinks(ctx, cmd.Params)
	case "list_modes":
		return e.cmdListModes(ctx, cmd.Params)
	case "list_presets":
		return e.cmdListPresets(ctx, cmd.Params)
	case "get_preset":
		return e.cmdGetPreset(ctx, cmd.Params)
	case "clone_preset":
		return e.cmdClonePreset(ctx, cmd.Params)
	case "save_preset":
		return e.cmdSavePreset(ctx, cmd.Params)
	case "delete_preset":
		return e.cmdDeletePreset(ctx, cmd.Params)
	default:
		return errorResponse("Unknown action: " + cmd.Action)
	}
}

// ============================================================================
// Command Handlers
// ============================================================================

// cmdProcess applies a single mode
func (e *Engine) cmdProcess(ctx context.Context, params map[string]interface{}) Response {
	text := getStr(params, "text", "")
	modeName := getStr(params, "mode", "")
	if modeName == "" {
		return errorResponse("Missing required parameter: mode")
	}

	// unknown modes are processed as the identity
	mode, _ := ParseMode(modeName)

	opts, err := getOptions(params, "options")
	if err != nil {
		return errorResponse("Invalid options parameter: " + err.Error())
	}

	output, err := e.Process(ctx, text, mode, opts)
	if err != nil {
		return errorResponse(err.Error())
	}

	resp := successResponse(map[string]interface{}{
		"output": output,
	})
	resp.notice = e.notification(e.modeName(mode))
	return resp
}

// cmdExecutePreset runs a stored preset
func (e *Engine) cmdExecutePreset(ctx context.Context, params map[string]interface{}) Response {
	ref := getStr(params, "preset", "")
	if ref == "" {
		return errorResponse("Missing required parameter: preset")
	}

	preset, err := e.store.Lookup(ref)
	if err != nil {
		return errorResponse(err.Error())
	}

	output, err := e.ExecutePreset(ctx, preset.ID.String(), getStr(params, "text", ""))
	if err != nil {
		return errorResponse(err.Error())
	}

	resp := successResponse(map[string]interface{}{
		"output": output,
	})
	resp.notice = e.notification(preset.Name)
	return resp
}

// cmdCountCharacters returns the UTF-16 length of the text
func (e *Engine) cmdCountCharacters(ctx context.Context, params map[string]interface{}) Response {
	count, _ := e.CountCharacters(ctx, getStr(params, "text", ""))
	return successResponse(map[string]interface{}{
		"count": count,
	})
}

// cmdExtractLinks lists the links of an HTML fragment
func (e *Engine) cmdExtractLinks(ctx context.Context, params map[string]interface{}) Response {
	links, err := e.ExtractLinks(ctx, getStr(params, "html", ""))
	if err != nil {
		return errorResponse(err.Error())
	}
	return successResponse(map[string]interface{}{
		"links": links,
	})
}

// cmdListModes returns the catalog
func (e *Engine) cmdListModes(ctx context.Context, params map[string]interface{}) Response {
	modes, _ := e.ListModes(ctx)
	return successResponse(map[string]interface{}{
		"modes": modes,
	})
}

// cmdListPresets returns all presets
func (e *Engine) cmdListPresets(ctx context.Context, params map[string]interface{}) Response {
	presets, _ := e.ListPresets(ctx)
	return successResponse(map[string]interface{}{
		"presets": presets,
	})
}

// cmdGetPreset returns one preset
func (e *Engine) cmdGetPreset(ctx context.Context, params map[string]interface{}) Response {
	ref := getStr(params, "preset", "")
	if ref == "" {
		return errorResponse("Missing required parameter: preset")
	}

	preset, err := e.GetPreset(ctx, ref)
	if err != nil {
		return errorResponse(err.Error())
	}
	return successResponse(map[string]interface{}{
		"preset": preset,
	})
}

// cmdClonePreset stores a user copy of a preset
func (e *Engine) cmdClonePreset(ctx context.Context, params map[string]interface{}) Response {
	ref := getStr(params, "preset", "")
	if ref == "" {
		return errorResponse("Missing required parameter: preset")
	}

	clone, err := e.ClonePreset(ctx, ref)
	if err != nil {
		return errorResponse(err.Error())
	}
	return successResponse(map[string]interface{}{
		"preset": clone,
	})
}

// cmdSavePreset adds or updates a user preset
func (e *Engine) cmdSavePreset(ctx context.Context, params map[string]interface{}) Response {
	raw, ok := params["preset"]
	if !ok {
		return errorResponse("Missing required parameter: preset")
	}

	// Convert the parameter back to JSON to decode it as a preset
	data, err := json.Marshal(raw)
	if err != nil {
		return errorResponse("Invalid preset parameter: " + err.Error())
	}
	var preset ProcessingPreset
	if err := json.Unmarshal(data, &preset); err != nil {
		return errorResponse("Invalid preset parameter: " + err.Error())
	}

	saved, err := e.SavePreset(ctx, &preset)
	if err != nil {
		return errorResponse(err.Error())
	}
	return successResponse(map[string]interface{}{
		"preset": saved,
	})
}

// cmdDeletePreset removes a user preset
func (e *Engine) cmdDeletePreset(ctx context.Context, params map[string]interface{}) Response {
	ref := getStr(params, "preset", "")
	if ref == "" {
		return errorResponse("Missing required parameter: preset")
	}

	if err := e.DeletePreset(ctx, ref); err != nil {
		return errorResponse(err.Error())
	}
	return successResponse(map[string]interface{}{
		"success": true,
	})
}

// ============================================================================
// Helper Functions
// ============================================================================

// getStr safely extracts a string parameter, with a default value
func getStr(params map[string]interface{}, key, defaultValue string) string {
	if val, ok := params[key]; ok {
		if strVal, ok := val.(string); ok {
			return strVal
		}
	}
	return defaultValue
}

// getOptions decodes an optional options object. An absent key yields nil.
func getOptions(params map[string]interface{}, key string) (*ProcessingOptions, error) {
	val, ok := params[key]
	if !ok || val == nil {
		return nil, nil
	}
	if _, ok := val.(map[string]interface{}); !ok {
		return nil, errors.Errorf("expected an object, got %T", val)
	}
	data, err := json.Marshal(val)
	if err != nil {
		return nil, err
	}
	var opts ProcessingOptions
	if err := json.Unmarshal(data, &opts); err != nil {
		return nil, err
	}
	return &opts, nil
}

// toJSON converts a value to JSON string
func toJSON(v interface{}) string {
	data, _ := json.Marshal(v)
	return string(data)
}

// successResponse creates a successful response
func successResponse(result interface{}) Response {
	return Response{
		Success: true,
		Result:  result,
	}
}

// errorResponse creates an error response
func errorResponse(errorMsg string) Response {
	return Response{
		Success: false,
		Error:   errorMsg,
	}
}
