package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nvsharma/courtlive/internal/archive"
	"github.com/nvsharma/courtlive/internal/audio"
	"github.com/nvsharma/courtlive/internal/audit"
	"github.com/nvsharma/courtlive/internal/config"
	"github.com/nvsharma/courtlive/internal/court"
	"github.com/nvsharma/courtlive/internal/judge"
	"github.com/nvsharma/courtlive/internal/llm"
	"github.com/nvsharma/courtlive/internal/server"
	"github.com/nvsharma/courtlive/internal/stt"
	"github.com/nvsharma/courtlive/internal/voice"
)

func main() {
	log.Println("courtlive: starting")

	cfg, warnings, err := config.Load(os.Getenv(config.EnvPrefix + "CONFIG"))
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	for _, w := range warnings {
		log.Printf("warning: %s", w)
	}

	store, err := audit.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("storage init failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := server.NewHub()

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: server.Handler(hub, store)}
	go func() {
		log.Printf("court record API at http://%s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http server error: %v", err)
		}
	}()

	if cfg.GDriveFolderID != "" {
		syncer, syncErr := archive.NewSyncer(ctx, cfg.GoogleCredentialsFile, cfg.GDriveFolderID)
		if syncErr != nil {
			log.Printf("warning: drive sync disabled: %v", syncErr)
		} else {
			go func() {
				ticker := time.NewTicker(5 * time.Minute)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						date := time.Now().UTC().Format("2006-01-02")
						if err := syncer.SyncDate(store, date); err != nil {
							log.Printf("drive sync error: %v", err)
						}
					}
				}
			}()
		}
	}

	provider, modelName, err := llm.ParseModel(cfg.JudgeModel)
	if err != nil {
		log.Fatalf("invalid judge model %q: %v", cfg.JudgeModel, err)
	}
	backend, err := llm.NewClient(provider, backendKey(cfg, provider), modelName)
	if err != nil {
		log.Fatalf("judge backend init failed: %v", err)
	}

	hearingID := time.Now().UTC().Format("20060102150405")
	caseID := os.Getenv(config.EnvPrefix + "CASE_ID")
	if caseID == "" {
		caseID = "walk-in-" + hearingID
	}
	caseSummary := ""
	if c, err := store.GetCase(caseID); err == nil {
		caseSummary = c.Summary
	}

	if err := store.CreateHearing(hearingID, caseID, time.Now().UTC()); err != nil {
		log.Fatalf("create hearing failed: %v", err)
	}
	hub.BroadcastHearingStarted(hearingID, caseID)
	startedAt := time.Now()

	logger := audit.NewLogger(store, hearingID)
	dispatcher := judge.NewDispatcher(backend, cfg.JudgeModel, logger)

	synth := voice.NewTextSynthesizer([]string{cfg.Language})
	coordinator := voice.NewCoordinator(synth, cfg.Language, cfg.SpeechRate, voice.Callbacks{
		Finished: func(role voice.Role, text string, err error) {
			if err != nil {
				log.Printf("utterance interrupted (%s): %v", role, err)
			}
		},
	})

	session := court.NewSession(dispatcher, coordinator, logger, court.Config{
		CallerID:    "courtroom",
		Language:    cfg.Language,
		CaseSummary: caseSummary,
	}, court.Callbacks{
		OnTurn: func(turn audit.Turn) {
			hub.BroadcastLiveTranscript(hearingID, turn.Speaker, turn.Role, turn.Text, true)
		},
		OnJudgeReply: func(result judge.Result) {
			hub.BroadcastJudgeReply(hearingID, result)
		},
		OnPhase: func(phase court.Phase) {
			hub.BroadcastPhaseChanged(hearingID, string(phase))
		},
	})

	// Committed utterances are handed to the judge in arrival order; the
	// channel decouples the recognizer's receive loop from backend latency.
	utterances := make(chan string, 16)
	go func() {
		for text := range utterances {
			if _, err := session.HandleUtterance(ctx, "Participant", string(voice.RoleAccused), text); err != nil {
				log.Printf("utterance handling failed: %v", err)
			}
		}
	}()

	capture := audio.NewCapture()
	sttCallbacks := stt.Callbacks{
		OnPartial: func(ev stt.TranscriptEvent) {
			hub.BroadcastLiveTranscript(hearingID, "Participant", string(voice.RoleAccused), ev.Text, false)
		},
		OnCommitted: func(ev stt.TranscriptEvent) {
			select {
			case utterances <- ev.Text:
			default:
				log.Printf("warning: utterance queue full, dropping %q", ev.Text)
			}
		},
		OnError: func(err error) {
			log.Printf("recognizer error: %v", err)
		},
	}

	primary := stt.NewClient(
		stt.NewWebSocketTransport(cfg.RecognizerURL, "nova-2"),
		stt.NewHTTPTokenProvider(cfg.RecognizerTokenURL, cfg.RecognizerAPIKey),
		capture, cfg.Language, sttCallbacks)
	fallback := stt.NewFallbackRecognizer(
		capture, stt.NewDeepgramTranscriber(cfg.DeepgramAPIKey), cfg.Language, sttCallbacks)
	usePrimary := cfg.RecognizerURL != "" && cfg.RecognizerTokenURL != "" && cfg.RecognizerAPIKey != ""
	recognizer := stt.SelectRecognizer(primary, fallback, usePrimary)
	if !usePrimary {
		log.Println("warning: streaming recognizer not configured, using whole-utterance fallback")
	}

	if _, err := session.Open(ctx); err != nil {
		log.Printf("warning: opening statement failed: %v", err)
	}

	if err := recognizer.StartListening(ctx); err != nil {
		log.Printf("warning: listening unavailable, running API only: %v", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("courtlive: shutting down")

	if err := recognizer.StopListening(); err != nil {
		log.Printf("warning: stop listening failed: %v", err)
	}
	close(utterances)

	if _, err := session.Adjourn(context.Background()); err != nil {
		log.Printf("warning: adjourn failed: %v", err)
	}
	if err := store.EndHearing(hearingID, time.Now().UTC()); err != nil {
		log.Printf("warning: end hearing failed: %v", err)
	}
	hub.BroadcastHearingEnded(hearingID, time.Since(startedAt))

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("warning: http shutdown failed: %v", err)
	}
}

func backendKey(cfg config.Config, provider string) string {
	switch provider {
	case "openai":
		return cfg.OpenAIAPIKey
	case "anthropic":
		return cfg.AnthropicAPIKey
	case "gemini":
		return cfg.GeminiAPIKey
	default:
		return ""
	}
}
