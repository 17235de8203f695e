package pluginhost

import (
	"encoding/json"
	"time"

	"github.com/webcore-dev/webcore/internal/apperr"
	"github.com/webcore-dev/webcore/internal/commands"
	"github.com/webcore-dev/webcore/internal/plugins"
)

const callTimeout = 5 * time.Second

// remotePlugin adapts a Conn to an external process into plugins.Plugin,
// so the loader can treat an out-of-process plugin identically to a
// built-in or explicitly-registered one (spec §4.8: discovery source is
// orthogonal to lifecycle).
type remotePlugin struct {
	manifest Manifest
	conn     *Conn
}

// NewPlugin wraps a live Conn (already past the handshake, via Spawn) as a
// plugins.Plugin using the declared manifest for Name/Dependencies.
func NewPlugin(manifest Manifest, conn *Conn) plugins.Plugin {
	return &remotePlugin{manifest: manifest, conn: conn}
}

func (p *remotePlugin) Name() string           { return p.manifest.Name }
func (p *remotePlugin) Dependencies() []string { return p.manifest.Dependencies }

func (p *remotePlugin) Initialize(ctx *plugins.Context) error {
	params := initializeParams{
		AppName:    ctx.AppName,
		AppVersion: ctx.AppVersion,
		AppDataDir: ctx.AppDataDir,
		Config:     ctx.Config,
		Grants:     p.manifest.Permissions,
	}
	_, err := p.conn.Call(methodInitialize, params, callTimeout)
	return err
}

func (p *remotePlugin) Shutdown(ctx *plugins.Context) error {
	_, err := p.conn.Call(methodShutdown, nil, callTimeout)
	_ = p.conn.Close()
	return err
}

// CommandHandlers asks the remote process which commands it provides, then
// builds one CommandSpec per remote command whose Handler proxies the call
// back over the connection as invoke_command. Every proxied command takes
// a single opaque commands.Request parameter — the remote process owns its
// own argument binding, the host just forwards the raw args object.
func (p *remotePlugin) CommandHandlers(ctx *plugins.Context) []commands.CommandSpec {
	raw, err := p.conn.Call(methodListCommands, nil, callTimeout)
	if err != nil {
		return nil
	}
	var descriptors []remoteCommandDescriptor
	if err := json.Unmarshal(raw, &descriptors); err != nil {
		return nil
	}

	specs := make([]commands.CommandSpec, 0, len(descriptors))
	for _, d := range descriptors {
		name := d.Name
		specs = append(specs, commands.CommandSpec{
			Name:   name,
			Params: []commands.ParamDescriptor{{Name: "request", Kind: commands.KindOpaqueRequest}},
			Handler: func(req commands.Request) (json.RawMessage, error) {
				return p.invoke(name, req)
			},
		})
	}
	return specs
}

func (p *remotePlugin) invoke(name string, req commands.Request) (json.RawMessage, error) {
	argsJSON, err := json.Marshal(req.Args)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPluginLoad, "encoding args for remote command "+name, err)
	}
	result, err := p.conn.Call(methodInvokeCommand, invokeCommandParams{Name: name, Args: argsJSON}, callTimeout)
	if err != nil {
		return nil, err
	}
	return result, nil
}
