package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ayusman/swipectl/internal/plugin"
)

// ErrPluginRejected is returned when a plugin answers with success=false.
var ErrPluginRejected = errors.New("plugin rejected command")

// Plugin delivers commands through an external plugin executable.
type Plugin struct {
	plugin   *plugin.Plugin
	executor *plugin.Executor
}

// NewPlugin resolves the named plugin, which must declare the swipe action.
func NewPlugin(mgr *plugin.Manager, name string, exec *plugin.Executor) (*Plugin, error) {
	p, err := mgr.Resolve(name, plugin.ActionSwipe)
	if err != nil {
		return nil, fmt.Errorf("resolve dispatch plugin: %w", err)
	}
	return &Plugin{plugin: p, executor: exec}, nil
}

// Submit sends cmd as a swipe request.
func (p *Plugin) Submit(ctx context.Context, cmd Command) error {
	params, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	req := &plugin.Request{
		Action:  plugin.ActionSwipe,
		Gesture: cmd.Gesture.Slug(),
		EventID: EventIDFrom(ctx),
		Config:  p.plugin.Manifest.Config,
		Params:  params,
	}

	resp, err := p.executor.Execute(ctx, p.plugin, req)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: %s: %s", ErrPluginRejected, p.plugin.Manifest.Name, resp.Error)
	}
	return nil
}

type eventIDKey struct{}

// WithEventID tags ctx with the ID of the event being delivered.
func WithEventID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, eventIDKey{}, id)
}

// EventIDFrom returns the event ID set by WithEventID.
func EventIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(eventIDKey{}).(string)
	return id
}
