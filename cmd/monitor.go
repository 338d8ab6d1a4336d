package cmd

import (
	"expvar"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/CraigKelly/nogold/posterior"
	"github.com/CraigKelly/nogold/sampler"
)

// progressVars are published once per process; expvar names can not be
// registered twice.
var (
	progressOnce sync.Once
	progressVars struct {
		info       *expvar.Map
		Chains     *expvar.Int
		BurnIn     *expvar.Int
		Iterations *expvar.Int
		Thin       *expvar.Int
		Window     *expvar.Int
		Sweeps     *expvar.Int
		RunTime    *expvar.Float
		Converged  *expvar.Int
	}
)

func publishProgress() {
	progressOnce.Do(func() {
		pv := &progressVars
		pv.info = expvar.NewMap("nogold-progress")
		pv.Chains = new(expvar.Int)
		pv.BurnIn = new(expvar.Int)
		pv.Iterations = new(expvar.Int)
		pv.Thin = new(expvar.Int)
		pv.Window = new(expvar.Int)
		pv.Sweeps = new(expvar.Int)
		pv.RunTime = new(expvar.Float)
		pv.Converged = new(expvar.Int)

		pv.info.Set("Chain-Count", pv.Chains)
		pv.info.Set("Burn-In", pv.BurnIn)
		pv.info.Set("Iterations", pv.Iterations)
		pv.info.Set("Thin", pv.Thin)
		pv.info.Set("Convergence-Window", pv.Window)
		pv.info.Set("Total-Sweeps", pv.Sweeps)
		pv.info.Set("Run-Time", pv.RunTime)
		pv.info.Set("Converged", pv.Converged)
	})
}

// monitor serves sampler progress while a run is going: expvar JSON under
// /debug/vars and Prometheus metrics under /metrics.
type monitor struct {
	addr    string
	logger  *zap.Logger
	stopped chan struct{}
	server  *http.Server
	started time.Time

	registry  *prometheus.Registry
	sweeps    *prometheus.CounterVec
	runTime   prometheus.Gauge
	converged prometheus.Gauge
}

func newMonitor(addr string, logger *zap.Logger) *monitor {
	m := &monitor{
		addr:     addr,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nogold",
			Name:      "sweeps_total",
			Help:      "Gibbs sweeps completed after burn-in",
		}, []string{"chain"}),
		runTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nogold",
			Name:      "run_seconds",
			Help:      "Seconds since sampling began",
		}),
		converged: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nogold",
			Name:      "converged",
			Help:      "1 once a run finishes with every monitored parameter converged",
		}),
	}
	m.registry.MustRegister(m.sweeps, m.runTime, m.converged)
	return m
}

// Start begins serving. The listener is opened before returning so a bad
// address is reported here.
func (m *monitor) Start() error {
	if m.server != nil {
		return errors.Errorf("BUG: You may only start the process monitor once")
	}
	publishProgress()

	ln, err := net.Listen("tcp", m.addr)
	if err != nil {
		return errors.Wrapf(err, "Could not start monitor on %s", m.addr)
	}
	m.addr = ln.Addr().String()

	// Redirect everything else to the expvar handler
	mux := http.NewServeMux()
	mux.Handle("/debug/vars", expvar.Handler())
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/debug/vars", http.StatusTemporaryRedirect)
	})

	m.stopped = make(chan struct{})
	m.server = &http.Server{Handler: mux}
	go func() {
		defer close(m.stopped)
		_ = m.server.Serve(ln)
	}()

	m.logger.Info("progress available", zap.String("url", "http://"+m.addr+"/debug/vars"))
	return nil
}

// Begin resets the counters for a new run
func (m *monitor) Begin(cfg *sampler.Config) {
	pv := &progressVars
	pv.Chains.Set(int64(len(cfg.Inits)))
	pv.BurnIn.Set(int64(cfg.BurnIn))
	pv.Iterations.Set(int64(cfg.Iterations))
	pv.Thin.Set(int64(cfg.Thin))
	pv.Window.Set(int64(cfg.EffectiveWindow()))
	pv.Sweeps.Set(0)
	pv.RunTime.Set(0)
	pv.Converged.Set(0)
	m.sweeps.Reset()
	m.runTime.Set(0)
	m.converged.Set(0)
	m.started = time.Now()
}

// Progress is the runner's progress callback; chains call it concurrently
func (m *monitor) Progress(chain int, sweeps int64) {
	elapsed := time.Since(m.started).Seconds()
	progressVars.Sweeps.Add(sweeps)
	progressVars.RunTime.Set(elapsed)
	m.sweeps.WithLabelValues(strconv.Itoa(chain)).Add(float64(sweeps))
	m.runTime.Set(elapsed)
}

// Finish records the outcome of a run (nil for a failed run)
func (m *monitor) Finish(res *posterior.Result) {
	elapsed := time.Since(m.started).Seconds()
	progressVars.RunTime.Set(elapsed)
	m.runTime.Set(elapsed)
	if res != nil && res.Converged() {
		progressVars.Converged.Set(1)
		m.converged.Set(1)
	}
}

// Stop shuts the server down, giving up after two seconds
func (m *monitor) Stop() {
	if m.server == nil {
		return
	}

	_ = m.server.Close()

	select {
	case <-m.stopped:
		m.logger.Debug("progress monitor stopped")
	case <-time.After(2 * time.Second):
		m.logger.Warn("progress monitor would NOT stop: just continuing on")
	}
}
