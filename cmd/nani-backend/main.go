// Command nani-backend runs the voice backend for the Nani caregiving
// assistant: the voice-exchange pipeline plus the sheet poller and its
// event stream.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nanicare/nani-backend/internal/config"
	"github.com/nanicare/nani-backend/internal/log"
	"github.com/nanicare/nani-backend/pkg/exchange"
	"github.com/nanicare/nani-backend/pkg/hub"
	"github.com/nanicare/nani-backend/pkg/openai"
	"github.com/nanicare/nani-backend/pkg/prompt"
	"github.com/nanicare/nani-backend/pkg/sheet"
	"github.com/nanicare/nani-backend/pkg/web"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	log.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ai, err := openai.NewClient(
		openai.WithAPIKey(cfg.APIKey),
		openai.WithSTTModel(cfg.STTModel),
		openai.WithGenModel(cfg.GenModel),
		openai.WithTTSModel(cfg.TTSModel),
		openai.WithVoice(cfg.Voice),
		openai.WithAudioFormat(cfg.AudioFormat),
		openai.WithLogger(log.L()),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	events := hub.New("sheet-events")
	go events.Run(ctx)

	var poller *sheet.Poller
	if cfg.SheetEnabled() {
		fetcher := sheet.NewFetcher(sheet.WithFetchLogger(log.L()))
		poller = sheet.NewPoller(fetcher, events,
			cfg.SheetID, cfg.SheetGID,
			cfg.PollInterval, cfg.TriggerCooldown,
			sheet.WithPollLogger(log.L()),
		)
		go poller.Run(ctx)
	} else {
		log.Info("sheet polling disabled, SHEET_ID not set")
	}

	orchOpts := []exchange.OrchestratorOption{
		exchange.WithDayPlan(prompt.DemoPlan()),
		exchange.WithAudioFormat(cfg.AudioFormat),
		exchange.WithLogger(log.L()),
	}
	if poller != nil {
		orchOpts = append(orchOpts, exchange.WithSheetSnapshot(func() (sheet.Record, bool) {
			entry, _, ok := poller.Snapshot()
			return entry, ok
		}))
	}
	orch := exchange.New(ai, ai, ai, orchOpts...)

	srv := web.New(cfg, orch, events, poller)

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := srv.Shutdown(); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	}()

	log.Info("voice backend listening",
		"addr", cfg.Addr(),
		"stt", cfg.STTModel,
		"gen", cfg.GenModel,
		"tts", cfg.TTSModel,
	)
	if err := srv.Listen(); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
