package pluginhost

import "encoding/json"

// rpcRequest and rpcResponse frame the one request/one response protocol
// spoken over the plugin's loopback WebSocket connection. id correlates a
// response back to its request, the same way C4's seq correlates
// __invoke calls to return_result.
type rpcRequest struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Methods the host may invoke on a connected plugin process.
const (
	methodInitialize     = "initialize"
	methodShutdown       = "shutdown"
	methodListCommands   = "list_commands"
	methodInvokeCommand  = "invoke_command"
)

// initializeParams is the wire form of plugins.Context a remote plugin can
// receive — only the serializable subset (no window/event handles cross
// the process boundary).
type initializeParams struct {
	AppName    string         `json:"appName"`
	AppVersion string         `json:"appVersion"`
	AppDataDir string         `json:"appDataDir"`
	Config     map[string]any `json:"config"`
	Grants     []string       `json:"grants"`
}

// remoteCommandDescriptor is how a remote plugin advertises a command over
// list_commands: just enough to build a commands.CommandSpec whose handler
// proxies back to invoke_command.
type remoteCommandDescriptor struct {
	Name       string   `json:"name"`
	ParamNames []string `json:"paramNames"`
}

type invokeCommandParams struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}
