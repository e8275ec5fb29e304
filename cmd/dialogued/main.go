// Command dialogued wires the Dialogue Runtime and its component handles
// into a long-running process: Config Cache, Backend Client, Retrieval &
// Guardrails, LLM Dispatcher, Audit Log, then the runtime's action/form
// registry, served over a thin JSON HTTP surface the NLU front-end calls
// once per turn (spec.md §6: the chat transport itself is an external
// collaborator, not built here).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/taskforge-ai/dialoguebot/audit"
	"github.com/taskforge-ai/dialoguebot/backend"
	"github.com/taskforge-ai/dialoguebot/config"
	"github.com/taskforge-ai/dialoguebot/dialogue"
	"github.com/taskforge-ai/dialoguebot/dialogue/actions"
	"github.com/taskforge-ai/dialoguebot/llm"
	"github.com/taskforge-ai/dialoguebot/retrieval"
	"github.com/taskforge-ai/dialoguebot/telemetry"

	_ "github.com/taskforge-ai/dialoguebot/llm/anthropic"
	_ "github.com/taskforge-ai/dialoguebot/llm/azure"
	_ "github.com/taskforge-ai/dialoguebot/llm/bedrock"
	_ "github.com/taskforge-ai/dialoguebot/llm/google"
	_ "github.com/taskforge-ai/dialoguebot/llm/ollama"
	_ "github.com/taskforge-ai/dialoguebot/llm/openai"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("dialogued: no .env loaded: %v", err)
	}

	bundle := telemetryBundle()
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt, err := build(ctx, bundle)
	if err != nil {
		log.Fatalf("dialogued: build: %v", err)
	}

	addr := envOr("DIALOGUED_ADDR", ":8080")
	srv := &http.Server{Addr: addr, Handler: newMux(rt), ReadTimeout: 10 * time.Second, WriteTimeout: 30 * time.Second}

	go func() {
		log.Printf("dialogued: listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("dialogued: serve: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}

func telemetryBundle() telemetry.Bundle {
	if envOr("DIALOGUED_TELEMETRY", "clue") == "noop" {
		return telemetry.NewNoopBundle()
	}
	return telemetry.NewBundle()
}

// build constructs every singleton component and the fully-registered
// Dialogue Runtime, in the layering spec.md §5 and §9 describe: bounded
// resource pools created once here and threaded through via Options
// structs, never re-created per turn.
func build(ctx context.Context, bundle telemetry.Bundle) (*dialogue.Runtime, error) {
	cc := buildConfigCache(bundle)

	backendClient, err := backend.New(backend.Options{
		BaseURL:   mustEnv("BACKEND_BASE_URL"),
		JWT:       os.Getenv("BACKEND_JWT"),
		APIKey:    os.Getenv("BACKEND_API_KEY"),
		Telemetry: bundle,
	})
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}

	retrievalSvc := buildRetrieval(bundle)
	auditLog := buildAuditLog(bundle)

	dispatcher, err := buildLLMDispatcher(ctx, cc, bundle)
	if err != nil {
		log.Printf("dialogued: llm dispatcher unavailable, falling back to retrieval-only: %v", err)
	}

	rt := dialogue.New(dialogue.Options{Config: cc, Audit: auditLog, Telemetry: bundle})
	registerActions(rt, backendClient, retrievalSvc, dispatcher, auditLog)
	registerForms(rt)

	return rt, nil
}

func buildConfigCache(bundle telemetry.Bundle) *config.Cache {
	var shared config.SharedCache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		shared = config.NewRedisSharedCache(redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		}))
	}
	var admin config.AdminFetcher
	if base := os.Getenv("ADMIN_API_BASE_URL"); base != "" {
		admin = config.NewHTTPAdminFetcher(base)
	}
	return config.New(config.Options{Shared: shared, Admin: admin, Telemetry: bundle})
}

func buildRetrieval(bundle telemetry.Bundle) *retrieval.Service {
	base := os.Getenv("VECTOR_STORE_BASE_URL")
	if base == "" {
		return nil
	}
	store := retrieval.NewHTTPVectorStore(retrieval.HTTPVectorStoreOptions{BaseURL: base})
	thresholds := retrieval.Thresholds{
		High:   envFloat("HIGH_CONFIDENCE_THRESHOLD", retrieval.DefaultThresholds().High),
		Medium: envFloat("MEDIUM_CONFIDENCE_THRESHOLD", retrieval.DefaultThresholds().Medium),
		Low:    envFloat("LOW_CONFIDENCE_THRESHOLD", retrieval.DefaultThresholds().Low),
	}
	return retrieval.New(retrieval.Options{
		Store:      store,
		Collection: envOr("VECTOR_STORE_COLLECTION", "faq"),
		Thresholds: thresholds,
		Telemetry:  bundle,
	})
}

func buildAuditLog(bundle telemetry.Bundle) *audit.Log {
	sinks := []audit.Sink{audit.NewLoggerSink(bundle.Logger)}
	if path := os.Getenv("AUDIT_LOG_PATH"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Printf("dialogued: audit file sink disabled: %v", err)
		} else {
			sinks = append(sinks, audit.NewFileSink(f))
		}
	}
	return audit.New(audit.Options{Sinks: sinks, Telemetry: bundle})
}

func buildLLMDispatcher(ctx context.Context, cc *config.Cache, _ telemetry.Bundle) (*llm.Dispatcher, error) {
	llmCfg, err := cc.GetLLMConfig(ctx)
	if err != nil {
		return nil, err
	}
	if llmCfg.APIKey == "" && llmCfg.Provider != config.LLMProviderOllama {
		return nil, fmt.Errorf("llm: no api key configured for provider %s", llmCfg.Provider)
	}
	return llm.NewDispatcher(llmCfg)
}

// registerActions binds every terminal action name to its implementation,
// matching the names the Dialogue Runtime resolves by intent or active-form
// terminal action (spec.md §4.1).
func registerActions(rt *dialogue.Runtime, bc *backend.Client, rg *retrieval.Service, ld *llm.Dispatcher, al *audit.Log) {
	rt.RegisterAction("create_booking", &actions.CreateBooking{Client: bc})
	rt.RegisterAction("cancel_booking", &actions.CancelBooking{Client: bc})
	rt.RegisterAction("reschedule_booking", &actions.RescheduleBooking{Client: bc})
	rt.RegisterAction("check_status", &actions.CheckStatus{Client: bc})
	rt.RegisterAction("get_available_slots", &actions.GetAvailableSlots{Client: bc})
	rt.RegisterAction("schedule_meeting", &actions.ScheduleMeeting{Client: bc})
	rt.RegisterAction("get_available_meeting_times", &actions.GetAvailableMeetingTimes{Client: bc})
	rt.RegisterAction("answer_question", &actions.AnswerQuestion{Retrieval: rg, LLM: ld})
	rt.RegisterAction("llm_fallback", &actions.LLMFallback{LLM: ld})
	rt.RegisterAction("handoff", &actions.Handoff{Audit: al})
	rt.RegisterAction("reset", &actions.Reset{})
}

// registerForms binds the multi-turn slot-filling forms to their terminal
// action and any slots required beyond what TaskConfig names (spec.md §4.1
// Required-slot resolution).
func registerForms(rt *dialogue.Runtime) {
	rt.RegisterForm(dialogue.FormSpec{Name: "book_service", TerminalAction: "create_booking", MinimumSlots: []string{"service_type"}})
	rt.RegisterForm(dialogue.FormSpec{Name: "schedule_meeting", TerminalAction: "schedule_meeting", MinimumSlots: []string{"meeting_type"}})
	rt.RegisterForm(dialogue.FormSpec{Name: "lookup_booking", TerminalAction: "check_status", MinimumSlots: []string{"booking_id"}})
}

func newMux(rt *dialogue.Runtime) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("/turn", turnHandler(rt))
	return mux
}

// turnHandler adapts one inbound TurnInput JSON body to rt.HandleTurn and
// writes the resulting TurnOutput back as JSON — the thin boundary between
// the (out of scope) chat transport and the Dialogue Runtime.
func turnHandler(rt *dialogue.Runtime) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var in dialogue.TurnInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		out, err := rt.HandleTurn(r.Context(), in)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("dialogued: required environment variable %s is not set", key)
	}
	return v
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fallback
	}
	return f
}
