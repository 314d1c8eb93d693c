package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/GaiaEyesHQ/featurefetch/internal/api"
	"github.com/GaiaEyesHQ/featurefetch/internal/backend"
	"github.com/GaiaEyesHQ/featurefetch/internal/cache"
	"github.com/GaiaEyesHQ/featurefetch/internal/config"
	"github.com/GaiaEyesHQ/featurefetch/internal/fetch"
)

type weatherPayload struct {
	KpIndex int `json:"kpIndex"`
}

// scriptedBackend serves a sequence of canned responses and a health endpoint
type scriptedBackend struct {
	mu        sync.Mutex
	responses []func(w http.ResponseWriter)
	server    *httptest.Server
}

func newScriptedBackend() *scriptedBackend {
	b := &scriptedBackend{}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v1/space-weather", func(w http.ResponseWriter, _ *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if len(b.responses) == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		next := b.responses[0]
		b.responses = b.responses[1:]
		next(w)
	})
	b.server = httptest.NewServer(mux)
	b.server.Config.SetKeepAlivesEnabled(false)
	return b
}

func (b *scriptedBackend) enqueue(fns ...func(w http.ResponseWriter)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.responses = append(b.responses, fns...)
}

func jsonResponse(body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func statusResponse(code int) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.WriteHeader(code)
	}
}

var _ = Describe("Fetch coordinator end to end", func() {
	var (
		mockBackend *scriptedBackend
		tempDir     string
		snapshotDir string
		cfg         *config.Config
		results     chan fetch.Result[weatherPayload]
	)

	newCoordinator := func() *fetch.Coordinator[weatherPayload] {
		durable, err := cache.NewSnapshotStore[weatherPayload](cfg, nil)
		Expect(err).NotTo(HaveOccurred())

		return fetch.New[weatherPayload](cfg.GetResourceName(),
			backend.NewDefaultClient(cfg.Resource.Endpoint, cfg.GetFetchTimeout()),
			cache.New[weatherPayload](durable),
			backend.NewHTTPProbe(cfg.Resource.HealthEndpoint),
			fetch.WithOnResult[weatherPayload](func(r fetch.Result[weatherPayload]) {
				results <- r
			}),
			// Keep the distress follow-up out of the test window
			fetch.WithFallbackRetryDelay[weatherPayload](time.Hour),
		)
	}

	BeforeEach(func() {
		mockBackend = newScriptedBackend()
		tempDir = GinkgoT().TempDir()
		snapshotDir = tempDir + "/snapshots"
		results = make(chan fetch.Result[weatherPayload], 4)

		configFile := writeConfigYAML(tempDir,
			mockBackend.server.URL+"/v1/space-weather",
			mockBackend.server.URL+"/healthz",
			snapshotDir)

		var err error
		cfg, err = config.LoadConfig(config.WithConfigPath(configFile))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		mockBackend.server.Close()
	})

	It("applies a fresh payload and persists the snapshot", func() {
		mockBackend.enqueue(jsonResponse(`{"ok":true,"payload":{"kpIndex":7},"source":"live"}`))

		coord := newCoordinator()
		coord.Refresh(ctx, fetch.TriggerInitial)

		var res fetch.Result[weatherPayload]
		Eventually(results).Should(Receive(&res))
		Expect(res.FromCache).To(BeFalse())
		Expect(res.Payload.KpIndex).To(Equal(7))
		Expect(res.Classification.ShowingCachedSnapshot).To(BeFalse())

		st := coord.Status()
		Expect(st.LastOutcome).To(Equal(fetch.OutcomeApplied))
		Expect(st.GuardActive).To(BeFalse(), "live source clears the guard")

		Expect(snapshotDir + "/space-weather/" + cache.SnapshotFileName).To(BeAnExistingFile())
	})

	It("falls back to the cached payload when the backend degrades", func() {
		mockBackend.enqueue(
			jsonResponse(`{"ok":true,"payload":{"kpIndex":5},"source":"live"}`),
			jsonResponse(`{"ok":false,"diagnostics":{"poolTimeout":{"isActive":true,"displayText":"pool saturated"}}}`),
		)

		coord := newCoordinator()
		coord.Refresh(ctx, fetch.TriggerInitial)
		Eventually(results).Should(Receive())

		coord.Refresh(ctx, fetch.TriggerInitial)

		var res fetch.Result[weatherPayload]
		Eventually(results).Should(Receive(&res))
		Expect(res.FromCache).To(BeTrue())
		Expect(res.Payload.KpIndex).To(Equal(5))
		Expect(res.Classification.PoolTimeoutActive).To(BeTrue())
		Expect(res.Classification.ShowingCachedSnapshot).To(BeTrue())

		st := coord.Status()
		Expect(st.LastOutcome).To(Equal(fetch.OutcomeCacheFallback))
		Expect(st.FallbackRetryArmed).To(BeTrue())
	})

	It("recovers the persisted snapshot after a restart", func() {
		mockBackend.enqueue(jsonResponse(`{"ok":true,"payload":{"kpIndex":4},"source":"live"}`))

		first := newCoordinator()
		first.Refresh(ctx, fetch.TriggerInitial)
		Eventually(results).Should(Receive())

		// A new coordinator over the same snapshot directory simulates a
		// process restart with an empty in-memory tier. The backend now
		// answers 503, so attempt one falls back to the durable snapshot.
		restarted := newCoordinator()
		restarted.Refresh(ctx, fetch.TriggerInitial)

		var res fetch.Result[weatherPayload]
		Eventually(results).Should(Receive(&res))
		Expect(res.FromCache).To(BeTrue())
		Expect(res.Payload.KpIndex).To(Equal(4))
	})

	It("serves the coordinator state over the status API", func() {
		mockBackend.enqueue(jsonResponse(`{"ok":true,"payload":{"kpIndex":7},"source":"live"}`))

		coord := newCoordinator()
		coord.Refresh(ctx, fetch.TriggerInitial)
		Eventually(results).Should(Receive())

		statusServer := httptest.NewServer(api.NewServer(coord))
		defer statusServer.Close()

		resp, err := http.Get(statusServer.URL + "/v1/status")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var st fetch.Snapshot
		Expect(json.NewDecoder(resp.Body).Decode(&st)).To(Succeed())
		Expect(st.Resource).To(Equal("space-weather"))
		Expect(st.LastOutcome).To(Equal(fetch.OutcomeApplied))
	})
})
