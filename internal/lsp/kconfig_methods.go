package lsp

import (
	"encoding/json"

	"github.com/nrfconnect/kconfiglsp/internal/menu"
)

// toWireMenu translates a menu.Descriptor into the JSON shape
// kconfig/setMenu returns.
func toWireMenu(d menu.Descriptor) menuDescriptor {
	items := make([]menuItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, menuItem{
			ID:      it.ID,
			Kind:    string(it.Kind),
			Label:   it.Label,
			Depth:   it.Depth,
			Visible: it.Visible,
			IsMenu:  it.IsMenu,
		})
	}
	return menuDescriptor{ID: d.ID, Label: d.Label, Items: items}
}

// addBuildParams/Result etc. mirror the wire shapes of the kconfig/*
// method params and results.
type addBuildParams struct {
	Root string            `json:"root"`
	Conf []string          `json:"conf"`
	Env  map[string]string `json:"env"`
}

type addBuildResult struct {
	ID int `json:"id"`
}

type searchParams struct {
	Ctx   int    `json:"ctx"`
	Query string `json:"query"`
}

type symbolItem struct {
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
	Type    string `json:"type"`
	Help    string `json:"help"`
	Prompt  string `json:"prompt"`
}

type searchResult struct {
	Ctx     int          `json:"ctx"`
	Query   string       `json:"query"`
	Symbols []symbolItem `json:"symbols"`
}

type setMenuParams struct {
	Ctx int    `json:"ctx"`
	ID  string `json:"id"`
}

type menuItem struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Label   string `json:"label"`
	Depth   int    `json:"depth"`
	Visible bool   `json:"visible"`
	IsMenu  bool   `json:"isMenu"`
}

type menuDescriptor struct {
	ID    string     `json:"id"`
	Label string     `json:"label"`
	Items []menuItem `json:"items"`
}

type setValParams struct {
	Ctx  int     `json:"ctx"`
	Name string  `json:"name"`
	Val  *string `json:"val"`
}

// registerKconfig wires the four non-standard kconfig/* methods to
// the Context Manager.
func (s *Server) registerKconfig() {
	s.dispatcher.Register("kconfig/addBuild", s.handleAddBuild)
	s.dispatcher.Register("kconfig/search", s.handleSearch)
	s.dispatcher.Register("kconfig/setMenu", s.handleSetMenu)
	s.dispatcher.Register("kconfig/setVal", s.handleSetVal)
}

func (s *Server) handleAddBuild(raw json.RawMessage) (interface{}, *Error) {
	var p addBuildParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	id, err := s.Manager.AddBuild(p.Root, p.Conf, p.Env)
	if err != nil {
		return nil, FromCoreError(err)
	}
	if s.OnBuild != nil {
		s.OnBuild(id, p.Root)
	}
	return addBuildResult{ID: id}, nil
}

func (s *Server) handleSearch(raw json.RawMessage) (interface{}, *Error) {
	var p searchParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	items, err := s.Manager.SymbolSearch(p.Ctx, p.Query)
	if err != nil {
		return nil, FromCoreError(err)
	}
	out := make([]symbolItem, 0, len(items))
	for _, it := range items {
		out = append(out, symbolItem{
			Name:    it.Name,
			Visible: it.Visible,
			Type:    string(it.Type),
			Help:    it.Help,
			Prompt:  it.Prompt,
		})
	}
	return searchResult{Ctx: p.Ctx, Query: p.Query, Symbols: out}, nil
}

func (s *Server) handleSetMenu(raw json.RawMessage) (interface{}, *Error) {
	var p setMenuParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		d, err := s.Manager.TopMenu(p.Ctx)
		if err != nil {
			return nil, FromCoreError(err)
		}
		return toWireMenu(d), nil
	}
	d, err := s.Manager.SetMenu(p.Ctx, p.ID)
	if err != nil {
		return nil, FromCoreError(err)
	}
	return toWireMenu(d), nil
}

func (s *Server) handleSetVal(raw json.RawMessage) (interface{}, *Error) {
	var p setValParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	if err := s.Manager.SetVal(p.Ctx, p.Name, p.Val); err != nil {
		return nil, FromCoreError(err)
	}
	return nil, nil
}
