// Package httpapi exposes the command dispatcher and event streams over
// HTTP: one gorilla/mux router per process, addressing controllers by
// the identity they were registered under.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/cncware/smoothied/controller"
	"github.com/cncware/smoothied/macro"
	"github.com/cncware/smoothied/session"
)

// API wires the controller registry, macro store, and session hubs into
// a router. One API instance serves every controller in the registry.
type API struct {
	http.Handler

	registry *controller.Registry
	macros   *macro.Store
	dataDir  string // backs watchdir:load file uploads

	wsHub *session.WSHub
	sse   map[string]*session.SSEHub
}

// New constructs the router. dataDir is where watchdir:load file uploads
// live.
func New(registry *controller.Registry, macros *macro.Store, dataDir string) *API {
	a := &API{
		registry: registry,
		macros:   macros,
		dataDir:  dataDir,
		wsHub:    session.NewWSHub(),
		sse:      make(map[string]*session.SSEHub),
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/controllers/{ident}/events/sse", a.sseHandler)
	r.HandleFunc("/api/controllers/{ident}/events/ws", a.wsHandler)
	r.HandleFunc("/api/controllers/{ident}/snapshot", a.snapshot).Methods(http.MethodGet)

	r.HandleFunc("/api/controllers/{ident}/gcode", a.gcode).Methods(http.MethodPost)
	r.HandleFunc("/api/controllers/{ident}/load", a.load).Methods(http.MethodPost)
	r.HandleFunc("/api/controllers/{ident}/unload", a.simple((*controller.Controller).Unload)).Methods(http.MethodPost)
	r.HandleFunc("/api/controllers/{ident}/start", a.simple((*controller.Controller).Start)).Methods(http.MethodPost)
	r.HandleFunc("/api/controllers/{ident}/stop", a.simple((*controller.Controller).Stop)).Methods(http.MethodPost)
	r.HandleFunc("/api/controllers/{ident}/pause", a.pause).Methods(http.MethodPost)
	r.HandleFunc("/api/controllers/{ident}/resume", a.simple((*controller.Controller).Resume)).Methods(http.MethodPost)
	r.HandleFunc("/api/controllers/{ident}/feeder/start", a.simple((*controller.Controller).FeederStart)).Methods(http.MethodPost)
	r.HandleFunc("/api/controllers/{ident}/feeder/stop", a.simple((*controller.Controller).FeederStop)).Methods(http.MethodPost)
	r.HandleFunc("/api/controllers/{ident}/feedhold", a.simple((*controller.Controller).FeedHold)).Methods(http.MethodPost)
	r.HandleFunc("/api/controllers/{ident}/cyclestart", a.simple((*controller.Controller).CycleStart)).Methods(http.MethodPost)
	r.HandleFunc("/api/controllers/{ident}/homing", a.simple((*controller.Controller).Homing)).Methods(http.MethodPost)
	r.HandleFunc("/api/controllers/{ident}/unlock", a.simple((*controller.Controller).Unlock)).Methods(http.MethodPost)
	r.HandleFunc("/api/controllers/{ident}/reset", a.simple((*controller.Controller).Reset)).Methods(http.MethodPost)
	r.HandleFunc("/api/controllers/{ident}/override/feed", a.overrideFeed).Methods(http.MethodPost)
	r.HandleFunc("/api/controllers/{ident}/override/spindle", a.overrideSpindle).Methods(http.MethodPost)
	r.HandleFunc("/api/controllers/{ident}/lasertest", a.laserTest).Methods(http.MethodPost)
	r.HandleFunc("/api/controllers/{ident}/macro/{id}/run", a.macroRun).Methods(http.MethodPost)
	r.HandleFunc("/api/controllers/{ident}/macro/{id}/load", a.macroLoad).Methods(http.MethodPost)
	r.HandleFunc("/api/controllers/{ident}/watchdir/load", a.watchdirLoad).Methods(http.MethodPost)

	r.HandleFunc("/api/macros", a.listMacros).Methods(http.MethodGet)
	r.HandleFunc("/api/macros/{id}", a.putMacro).Methods(http.MethodPut)
	r.HandleFunc("/api/macros/{id}", a.deleteMacro).Methods(http.MethodDelete)

	a.Handler = r
	return a
}

func (a *API) controllerFor(w http.ResponseWriter, r *http.Request) *controller.Controller {
	ident := mux.Vars(r)["ident"]
	c := a.registry.Get(ident)
	if c == nil {
		http.Error(w, "no such controller", http.StatusNotFound)
		return nil
	}
	return c
}

// simple adapts a zero-argument Controller method into an HTTP handler.
func (a *API) simple(fn func(*controller.Controller)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := a.controllerFor(w, r)
		if c == nil {
			return
		}
		fn(c)
	}
}

func (a *API) sseHandler(w http.ResponseWriter, r *http.Request) {
	c := a.controllerFor(w, r)
	if c == nil {
		return
	}
	ident := mux.Vars(r)["ident"]

	hub, ok := a.sse[ident]
	if !ok {
		hub = session.NewSSEHub("/api/controllers/" + ident + "/events/sse")
		a.sse[ident] = hub
		c.Subscribe(hub)
	}
	hub.Handler().ServeHTTP(w, r)
}

func (a *API) wsHandler(w http.ResponseWriter, r *http.Request) {
	c := a.controllerFor(w, r)
	if c == nil {
		return
	}
	_, err := a.wsHub.Accept(w, r, c.Sessions())
	if err != nil {
		return
	}
}

func (a *API) snapshot(w http.ResponseWriter, r *http.Request) {
	c := a.controllerFor(w, r)
	if c == nil {
		return
	}
	writeJSON(w, c.Snapshot())
}

func (a *API) gcode(w http.ResponseWriter, r *http.Request) {
	c := a.controllerFor(w, r)
	if c == nil {
		return
	}
	var body struct {
		Commands []string `json:"commands"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	c.Gcode(body.Commands)
}

func (a *API) load(w http.ResponseWriter, r *http.Request) {
	c := a.controllerFor(w, r)
	if c == nil {
		return
	}
	var body struct {
		Name string `json:"name"`
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	c.Load(body.Name, body.Text)
}

func (a *API) pause(w http.ResponseWriter, r *http.Request) {
	c := a.controllerFor(w, r)
	if c == nil {
		return
	}
	c.Pause(r.URL.Query().Get("reason"))
}

func (a *API) overrideFeed(w http.ResponseWriter, r *http.Request) {
	c := a.controllerFor(w, r)
	if c == nil {
		return
	}
	c.OverrideFeed(queryInt(r, "delta"))
}

func (a *API) overrideSpindle(w http.ResponseWriter, r *http.Request) {
	c := a.controllerFor(w, r)
	if c == nil {
		return
	}
	c.OverrideSpindle(queryInt(r, "delta"))
}

func (a *API) laserTest(w http.ResponseWriter, r *http.Request) {
	c := a.controllerFor(w, r)
	if c == nil {
		return
	}
	power, _ := strconv.ParseFloat(r.URL.Query().Get("power"), 64)
	duration, _ := strconv.ParseFloat(r.URL.Query().Get("durationMs"), 64)
	c.LaserTest(power, duration)
}

func (a *API) macroRun(w http.ResponseWriter, r *http.Request) {
	c := a.controllerFor(w, r)
	if c == nil {
		return
	}
	if err := c.MacroRun(mux.Vars(r)["id"]); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
	}
}

func (a *API) macroLoad(w http.ResponseWriter, r *http.Request) {
	c := a.controllerFor(w, r)
	if c == nil {
		return
	}
	if err := c.MacroLoad(mux.Vars(r)["id"]); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
	}
}

// watchdirLoad reads a file from the data directory and dispatches it as
// sender:load.
func (a *API) watchdirLoad(w http.ResponseWriter, r *http.Request) {
	c := a.controllerFor(w, r)
	if c == nil {
		return
	}
	name := r.URL.Query().Get("file")
	full, ok := safePath(a.dataDir, name)
	if !ok {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}
	data, err := os.ReadFile(full)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	c.Load(name, string(data))
}

func (a *API) listMacros(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, a.macros.List())
}

func (a *API) putMacro(w http.ResponseWriter, r *http.Request) {
	var m macro.Macro
	if !decodeJSON(w, r, &m) {
		return
	}
	m.ID = mux.Vars(r)["id"]
	if err := a.macros.Put(m); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (a *API) deleteMacro(w http.ResponseWriter, r *http.Request) {
	if err := a.macros.Delete(mux.Vars(r)["id"]); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
	}
}

func safePath(base, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	full := filepath.Join(base, filepath.FromSlash(filepath.Clean("/"+name)))
	return full, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, 10<<20))
	if err := dec.Decode(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func queryInt(r *http.Request, name string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(name))
	return v
}
