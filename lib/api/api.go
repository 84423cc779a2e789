package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/fosdem/stereoview/lib/api/docs"
	"github.com/fosdem/stereoview/lib/config"
	"github.com/fosdem/stereoview/lib/framequeue"
	"github.com/fosdem/stereoview/lib/metrics"
	"github.com/fosdem/stereoview/lib/player"
	"github.com/fosdem/stereoview/lib/stats"
)

//	@title			stereoview
//	@version		1.0
//	@description	Control and inspection API of the stereoview frame queue
//	@BasePath		/

type Api struct {
	srv    http.Server
	mux    *http.ServeMux
	cfg    *config.ApiCfg
	player *player.Player
	queue  *framequeue.FrameQueue

	Stats *stats.Collector

	wsClients map[*websocket.Conn]bool
	wsMutex   sync.Mutex
}

func New(cfg *config.ApiCfg, p *player.Player) *Api {
	a := &Api{}
	a.cfg = cfg
	a.mux = http.NewServeMux()
	a.player = p
	a.queue = p.Queue
	a.Stats = p.Stats
	a.srv.Addr = cfg.Bind
	a.srv.Handler = a.mux
	a.wsClients = make(map[*websocket.Conn]bool)

	if cfg.EnableProfiler {
		a.mux.HandleFunc("/prof", a.profileCPU)
	}
	a.mux.HandleFunc("POST /api/kill", a.suicide)
	a.mux.HandleFunc("GET /api/stats", a.getStats)
	a.mux.HandleFunc("GET /api/queue", a.getQueue)
	a.mux.HandleFunc("POST /api/drop/{count}", a.handleDrop)
	a.mux.HandleFunc("POST /api/clear", a.handleClear)
	a.mux.HandleFunc("PUT /api/compress/{state}", a.handleCompress)
	a.mux.HandleFunc("PUT /api/stream/{state}", a.handleStream)
	a.mux.HandleFunc("POST /api/pause/{state}", a.handlePause)
	a.mux.HandleFunc("POST /api/step", a.handleStep)
	a.mux.HandleFunc("GET /api/params", a.getParams)
	a.mux.HandleFunc("PUT /api/params", a.putParams)
	a.mux.HandleFunc("GET /api/snapshot/{eye}", a.handleSnapshot)
	a.mux.HandleFunc("GET /api/snapshot/{eye}/{format}", a.handleSnapshot)
	a.mux.HandleFunc("GET /api/ws", a.handleWebsocket)
	a.mux.Handle("GET /metrics", metrics.Handler())
	a.mux.Handle("/swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	return a
}

func (a *Api) log() *slog.Logger {
	return slog.Default().With(slog.String("module", "api"))
}

// Handler returns the router of the API, mostly useful for tests.
func (a *Api) Handler() http.Handler {
	return a.mux
}

func (a *Api) Serve() error {
	return a.srv.ListenAndServe()
}

func writeOk(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_, err := fmt.Fprintf(w, "\"ok\"\n")
	if err != nil {
		slog.Error(fmt.Sprintf("could not write response: %s", err))
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	if err := encoder.Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("could not encode response: %s", err), http.StatusInternalServerError)
	}
}

// parseState accepts the usual spellings of a boolean path parameter.
func parseState(s string) (bool, error) {
	switch s {
	case "on", "true", "1", "enable":
		return true, nil
	case "off", "false", "0", "disable":
		return false, nil
	}
	return false, fmt.Errorf("invalid state %q, use on or off", s)
}

// @Summary	Profile the CPU for 10 seconds
// @Router		/prof [get]
// @Tags		debug
// @Success	200
// @Produce	octet-stream
func (a *Api) profileCPU(w http.ResponseWriter, _ *http.Request) {
	err := pprof.StartCPUProfile(w)
	if err != nil {
		http.Error(w, fmt.Sprintf("Could not start CPU profile: %s", err), http.StatusInternalServerError)
		return
	}
	time.Sleep(10 * time.Second)
	pprof.StopCPUProfile()
}

// @Summary	Stop the player
// @Router		/api/kill [post]
// @Tags		base
// @Success	200	{string}	string	"ok"
func (a *Api) suicide(w http.ResponseWriter, _ *http.Request) {
	a.log().Info("shutting down as per api request")
	a.player.RequestShutdown()
	writeOk(w)
}

// @Summary	Render loop and queue statistics
// @Router		/api/stats [get]
// @Tags		base
// @Success	200	{object}	stats.Stats
// @Produce	json
func (a *Api) getStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, a.Stats.Get())
}

type QueueInfo struct {
	framequeue.Stats
	QueueLen int  `json:"queue_len"`
	Empty    bool `json:"empty"`
	Full     bool `json:"full"`
}

// @Summary	Current state of the frame queue
// @Router		/api/queue [get]
// @Tags		queue
// @Success	200	{object}	QueueInfo
// @Produce	json
func (a *Api) getQueue(w http.ResponseWriter, _ *http.Request) {
	_, queueLen, _ := a.queue.GetQueueInfo()
	writeJSON(w, QueueInfo{
		Stats:    a.queue.Stats(),
		QueueLen: queueLen,
		Empty:    a.queue.IsEmpty(),
		Full:     a.queue.IsFull(),
	})
}

type DropResponse struct {
	PTSNext float64 `json:"pts_next"`
}

// @Summary	Drop the oldest pending frames
// @Router		/api/drop/{count} [post]
// @Tags		queue
// @Param		count	path		int	true	"Number of frames to drop"
// @Success	200		{object}	DropResponse
// @Failure	400		{string}	string	"The count is not a non-negative number"
// @Produce	json
func (a *Api) handleDrop(w http.ResponseWriter, req *http.Request) {
	count, err := strconv.Atoi(req.PathValue("count"))
	if err != nil || count < 0 {
		http.Error(w, "count must be a non-negative number", http.StatusBadRequest)
		return
	}
	pts := a.queue.Drop(count)
	writeJSON(w, DropResponse{PTSNext: pts})
}

// @Summary	Empty the queue and restart the playback clock
// @Router		/api/clear [post]
// @Tags		queue
// @Success	200	{string}	string	"ok"
func (a *Api) handleClear(w http.ResponseWriter, _ *http.Request) {
	a.player.Clear()
	writeOk(w)
}

// @Summary	Release idle textures after each swap
// @Router		/api/compress/{state} [put]
// @Tags		queue
// @Param		state	path		string	true	"on or off"
// @Success	200		{string}	string	"ok"
// @Failure	400		{string}	string	"Invalid state"
func (a *Api) handleCompress(w http.ResponseWriter, req *http.Request) {
	state, err := parseState(req.PathValue("state"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.queue.SetCompressMemory(state)
	writeOk(w)
}

// @Summary	Mark the producer stream as connected or not
// @Router		/api/stream/{state} [put]
// @Tags		queue
// @Param		state	path		string	true	"on or off"
// @Success	200		{string}	string	"ok"
// @Failure	400		{string}	string	"Invalid state"
func (a *Api) handleStream(w http.ResponseWriter, req *http.Request) {
	state, err := parseState(req.PathValue("state"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.queue.SetConnectedStream(state)
	writeOk(w)
}

// @Summary	Pause or resume playback
// @Router		/api/pause/{state} [post]
// @Tags		playback
// @Param		state	path		string	true	"on, off or toggle"
// @Success	200		{string}	string	"ok"
// @Failure	400		{string}	string	"Invalid state"
func (a *Api) handlePause(w http.ResponseWriter, req *http.Request) {
	if req.PathValue("state") == "toggle" {
		a.player.TogglePause()
		writeOk(w)
		return
	}
	state, err := parseState(req.PathValue("state"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.player.SetPaused(state)
	writeOk(w)
}

// @Summary	Pause and show the next frame
// @Router		/api/step [post]
// @Tags		playback
// @Success	200	{string}	string	"ok"
func (a *Api) handleStep(w http.ResponseWriter, _ *http.Request) {
	a.player.Step()
	writeOk(w)
}

// @Summary	Display parameters of the stream
// @Router		/api/params [get]
// @Tags		playback
// @Success	200	{object}	stereo.DisplayParamsSnapshot
// @Failure	404	{string}	string	"The stream has no display parameters"
// @Produce	json
func (a *Api) getParams(w http.ResponseWriter, _ *http.Request) {
	if a.player.Params == nil {
		http.Error(w, "No display parameters", http.StatusNotFound)
		return
	}
	writeJSON(w, a.player.Params.Get())
}

// @Summary	Change the display parameters of the stream
// @Router		/api/params [put]
// @Tags		playback
// @Param		params	body		stereo.DisplayParamsSnapshot	true	"The new parameters"
// @Success	200		{object}	stereo.DisplayParamsSnapshot
// @Failure	400		{string}	string	"The parameters could not be decoded or are invalid"
// @Failure	404		{string}	string	"The stream has no display parameters"
// @Accept		json
// @Produce	json
func (a *Api) putParams(w http.ResponseWriter, req *http.Request) {
	if a.player.Params == nil {
		http.Error(w, "No display parameters", http.StatusNotFound)
		return
	}
	params := a.player.Params.Get()
	if err := json.NewDecoder(req.Body).Decode(&params); err != nil {
		http.Error(w, fmt.Sprintf("could not decode json request: %s", err), http.StatusBadRequest)
		return
	}
	if params.Baseline < 0 || params.Convergence < 0 {
		http.Error(w, "baseline and convergence must not be negative", http.StatusBadRequest)
		return
	}
	a.player.Params.Set(params)
	a.log().Info(fmt.Sprintf("Display parameters set to %+v", params))
	writeJSON(w, params)
}

func ServeInBackground(p *player.Player, cfg *config.ApiCfg) *Api {
	var theApi *Api
	if cfg != nil {
		theApi = New(cfg, p)

		theApi.log().Info(fmt.Sprintf("starting web server on %s", cfg.Bind))
		go func() {
			err := theApi.Serve()
			if err != nil {
				theApi.log().Error(fmt.Sprintf("could not start web server: %s", err))
				p.RequestShutdown()
			}
		}()
	}
	return theApi
}
