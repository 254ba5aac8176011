package context

import (
	"fmt"

	"github.com/nrfconnect/kconfiglsp/internal/lsperrors"
	"github.com/nrfconnect/kconfiglsp/internal/menu"
)

// SetMenu resolves id against ctx's current parse version and returns
// the Descriptor for the menu it addresses, updating ctx.FocusedMenu.
// A version mismatch (the desync signal) or an unresolvable id returns
// a *lsperrors.ContextError with Desync set accordingly.
func (m *Manager) SetMenu(ctxID int, id string) (menu.Descriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx, err := m.context(ctxID)
	if err != nil {
		return menu.Descriptor{}, err
	}

	nodeID, ok := menu.Resolve(ctx.Graph, ctx.ParseVersion, id)
	if !ok {
		version, _, _, decodeOK := menu.Decode(id)
		desynced := decodeOK && version != ctx.ParseVersion
		cerr := lsperrors.NewContextError(ctxID, fmt.Errorf("node id %q not found", id))
		if desynced {
			cerr.WithDesync()
		}
		return menu.Descriptor{}, cerr
	}

	desc := menu.SetMenu(ctx.Graph, ctx.ParseVersion, nodeID)
	ctx.FocusedMenu = desc.ID
	return desc, nil
}

// TopMenu returns the descriptor for the synthetic root menu, the
// starting point a client re-queries from after a Desync error.
func (m *Manager) TopMenu(ctxID int) (menu.Descriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx, err := m.context(ctxID)
	if err != nil {
		return menu.Descriptor{}, err
	}
	desc := menu.SetMenu(ctx.Graph, ctx.ParseVersion, ctx.Graph.Top)
	ctx.FocusedMenu = desc.ID
	return desc, nil
}
