// Package editor ties the layout engines, the override store and the router
// into one interactive editing session.
//
// # Relayout Requests
//
// Every call to [Session.Relayout] takes a new generation number and cancels
// the request in flight. A result is applied only if its generation is still
// current when it arrives; [Session.SetGraph] and [Session.SetMode] also
// advance the generation, so a slow layered run can never overwrite a newer
// graph or mode. A stale result is dropped without touching the state.
//
// If the layered engine fails or times out, the session falls back to the
// last grid layout of the current graph (or the unlaid-out nodes when there
// is none) and clears the dirty set, leaving a consistent state.
//
//	s := editor.NewSession(layout.Build(w), editor.Options{Layered: layered.New(layered.Options{})})
//	s.SetMode(editor.ModeLayered)
//	out := <-s.Relayout(ctx)
//	if out.Fallback {
//	    log.Warn("layered layout failed", "err", out.Err)
//	}
package editor
