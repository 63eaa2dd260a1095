package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperr "github.com/matzehuels/worldmap/pkg/errors"
	"github.com/matzehuels/worldmap/pkg/graph"
	"github.com/matzehuels/worldmap/pkg/layout"
	"github.com/matzehuels/worldmap/pkg/layout/override"
	"github.com/matzehuels/worldmap/pkg/pipeline"
	"github.com/matzehuels/worldmap/pkg/store"
	"github.com/matzehuels/worldmap/pkg/world"
)

// engineClient names layouts whose positions were sent by the client.
const engineClient = "client"

// =============================================================================
// Request bodies
// =============================================================================

// layoutRequest asks for a full layout of a world document. Overrides, when
// given, replace the stored document; UseStore loads the stored overrides
// for World.Name instead.
type layoutRequest struct {
	World     world.Document     `json:"world"`
	Overrides *override.Snapshot `json:"overrides,omitempty"`
	UseStore  bool               `json:"use_store,omitempty"`
	Options   pipeline.Options   `json:"options"`
}

// routeRequest asks for routed edges between positions the client already
// holds, typically after a drag.
type routeRequest struct {
	World   world.Document   `json:"world"`
	Nodes   []graph.Node     `json:"nodes"`
	Options pipeline.Options `json:"options"`
}

// overridesBody is the document payload of the override endpoints.
type overridesBody struct {
	Engine    string       `json:"engine,omitempty"`
	Overrides override.Map `json:"overrides"`
	Dirty     []string     `json:"dirty,omitempty"`
}

// =============================================================================
// Layout and route
// =============================================================================

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	wd, err := buildWorld(req.World)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	opts, err := s.options(req.Options)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	var snap override.Snapshot
	switch {
	case req.Overrides != nil:
		snap = *req.Overrides
	case req.UseStore:
		if snap, err = s.storedSnapshot(r, wd.Name()); err != nil {
			s.writeErr(w, r, err)
			return
		}
	}

	res, err := s.runner.Execute(r.Context(), wd, snap, opts)
	if err != nil {
		s.writeErr(w, r, layoutError(r, err))
		return
	}
	writeJSON(w, http.StatusOK, res.Layout)
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	wd, err := buildWorld(req.World)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	opts, err := s.options(req.Options)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	grid := opts.GridOptions()
	for i := range req.Nodes {
		n := &req.Nodes[i]
		if err := apperr.ValidateNodeID(n.ID); err != nil {
			s.writeErr(w, r, err)
			return
		}
		if !wd.HasNode(n.ID) {
			s.writeErr(w, r, apperr.New(apperr.ErrCodeNotFound, "node %q is not part of the world", n.ID))
			return
		}
		if n.Width <= 0 {
			n.Width = grid.NodeWidth
		}
		if n.Height <= 0 {
			n.Height = grid.NodeHeight
		}
	}

	g := layout.Build(wd)
	nodes := graph.ToNodes(req.Nodes)
	edges, _, err := s.runner.RouteWithCacheInfo(r.Context(), g, nodes, opts)
	if err != nil {
		s.writeErr(w, r, layoutError(r, err))
		return
	}

	out := graph.Export(engineClient, nodes, edges)
	out.World = wd.Name()
	writeJSON(w, http.StatusOK, out)
}

// options overlays the request options on the server defaults and
// validates the result.
func (s *Server) options(req pipeline.Options) (pipeline.Options, error) {
	opts := s.layout
	if req.Engine != "" {
		if err := apperr.ValidateEngine(req.Engine, layout.EngineNames); err != nil {
			return opts, err
		}
		opts.Engine = req.Engine
	}
	overlay(&opts.NodeWidth, req.NodeWidth)
	overlay(&opts.NodeHeight, req.NodeHeight)
	overlay(&opts.MarginX, req.MarginX)
	overlay(&opts.MarginY, req.MarginY)
	overlay(&opts.ComponentGap, req.ComponentGap)
	overlay(&opts.SpiralRadius, req.SpiralRadius)
	overlay(&opts.RankDir, req.RankDir)
	overlay(&opts.Stub, req.Stub)
	overlay(&opts.Clearance, req.Clearance)
	overlay(&opts.Detour, req.Detour)
	overlay(&opts.PortSpread, req.PortSpread)
	opts.SkipRoutes = req.SkipRoutes
	opts.Refresh = req.Refresh
	opts.Logger = s.log

	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "invalid options: %v", err)
	}
	return opts, nil
}

func overlay[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}

func buildWorld(doc world.Document) (*world.World, error) {
	if len(doc.Nodes) == 0 {
		return nil, apperr.New(apperr.ErrCodeInvalidWorld, "world has no nodes")
	}
	wd, err := world.FromDocument(doc)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidWorld, err, "%v", err)
	}
	return wd, nil
}

// layoutError codes pipeline failures. A request deadline surfaces as a
// timeout; everything else is a layout failure.
func layoutError(r *http.Request, err error) error {
	if ctxErr := r.Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return apperr.Wrap(apperr.ErrCodeTimeout, err, "layout did not finish in time")
	}
	return apperr.Wrap(apperr.ErrCodeLayoutFailed, err, "layout failed")
}

// =============================================================================
// Override documents
// =============================================================================

func (s *Server) storedSnapshot(r *http.Request, name string) (override.Snapshot, error) {
	doc, err := s.getDocument(r, name)
	if err != nil {
		if apperr.Is(err, apperr.ErrCodeNotFound) {
			return override.Snapshot{}, nil
		}
		return override.Snapshot{}, err
	}
	return doc.Snapshot(), nil
}

func (s *Server) getDocument(r *http.Request, name string) (*store.Document, error) {
	if s.store == nil {
		return nil, apperr.New(apperr.ErrCodeUnavailable, "no layout store configured")
	}
	if err := apperr.ValidateWorldName(name); err != nil {
		return nil, err
	}
	doc, err := s.store.Get(r.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Wrap(apperr.ErrCodeNotFound, err, "no layout stored for %q", name)
	}
	if err != nil {
		return nil, storeError(err)
	}
	return doc, nil
}

func (s *Server) handleListWorlds(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeErr(w, r, apperr.New(apperr.ErrCodeUnavailable, "no layout store configured"))
		return
	}
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeErr(w, r, storeError(err))
		return
	}
	if list == nil {
		list = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"worlds": list})
}

func (s *Server) handleGetOverrides(w http.ResponseWriter, r *http.Request) {
	doc, err := s.getDocument(r, chi.URLParam(r, "world"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handlePutOverrides(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "world")
	var body overridesBody
	if err := s.decode(w, r, &body); err != nil {
		s.writeErr(w, r, err)
		return
	}
	for id := range body.Overrides {
		if err := apperr.ValidateNodeID(id); err != nil {
			s.writeErr(w, r, err)
			return
		}
	}

	doc, err := s.getDocument(r, name)
	switch {
	case apperr.Is(err, apperr.ErrCodeNotFound):
		doc = store.NewDocument(name)
	case err != nil:
		s.writeErr(w, r, err)
		return
	}
	if body.Engine != "" {
		if err := apperr.ValidateEngine(body.Engine, layout.EngineNames); err != nil {
			s.writeErr(w, r, err)
			return
		}
		doc.Engine = body.Engine
	}
	doc.SetSnapshot(override.Snapshot{Overrides: body.Overrides, Dirty: body.Dirty})

	if err := s.store.Save(r.Context(), doc); err != nil {
		s.writeErr(w, r, storeError(err))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteOverrides(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "world")
	if s.store == nil {
		s.writeErr(w, r, apperr.New(apperr.ErrCodeUnavailable, "no layout store configured"))
		return
	}
	if err := apperr.ValidateWorldName(name); err != nil {
		s.writeErr(w, r, err)
		return
	}
	err := s.store.Delete(r.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		s.writeErr(w, r, apperr.Wrap(apperr.ErrCodeNotFound, err, "no layout stored for %q", name))
		return
	}
	if err != nil {
		s.writeErr(w, r, storeError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// storeError keeps coded store errors and marks the rest as unavailable
// backends.
func storeError(err error) error {
	if apperr.GetCode(err) != "" {
		return err
	}
	return apperr.Wrap(apperr.ErrCodeUnavailable, err, "layout store unavailable")
}
