package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jsphweid/cpword/config"
	"github.com/jsphweid/cpword/constants"
	"github.com/jsphweid/cpword/dataset"
	"github.com/jsphweid/cpword/midi"
	"github.com/jsphweid/cpword/model"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

const maxUploadBytes = 8 << 20

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves tokenization over HTTP",
	Long: `Serves POST /tokenize, which takes a raw MIDI file as the request body
and answers with its words and chunks, and GET /vocab.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, activeCfg)
	},
}

func serve(ctx context.Context, cfg config.Config) error {
	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           newHandler(cfg, vocab, slog.Default()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, "serving")
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return errors.Wrap(srv.Shutdown(shutdownCtx), "shutting down")
}

type tokenizer struct {
	cfg    config.Config
	vocab  constants.Vocabulary
	logger *slog.Logger
}

// NewHandler is the HTTP API served by serve.
func NewHandler(cfg config.Config) http.Handler {
	return newHandler(cfg, vocab, slog.Default())
}

func newHandler(cfg config.Config, v constants.Vocabulary, logger *slog.Logger) http.Handler {
	t := &tokenizer{cfg: cfg, vocab: v, logger: logger}
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/tokenize", t.handleTokenize).Methods("POST")
	router.HandleFunc("/vocab", t.handleVocab).Methods("GET")
	router.HandleFunc("/health", handleHealth).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})
	return c.Handler(router)
}

func (t *tokenizer) handleTokenize(w http.ResponseWriter, r *http.Request) {
	cfg := t.cfg
	if err := queryInt(r, "track", &cfg.Pipeline.Track); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := queryInt(r, "max_length", &cfg.Pipeline.MaxLength); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var body bytes.Buffer
	if _, err := body.ReadFrom(http.MaxBytesReader(w, r.Body, maxUploadBytes)); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, errors.Wrap(err, "reading body"))
		return
	}
	s, err := midi.ReadMidi(&body)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	score, err := midi.ToScore(s, cfg.Pipeline.Track)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	builder := dataset.Builder{Config: cfg, Vocab: t.vocab, Logger: t.logger}
	tok, err := builder.Tokenize(score)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	t.logger.Debug("tokenized upload", "notes", len(score.Notes), "words", len(tok.Words), "chunks", tok.Stats.Chunks)

	res := model.TokenizeResponse{
		Resolution: score.Resolution,
		NumNotes:   len(score.Notes),
		Words:      arrays(tok.Words),
		Chunks:     make([][][4]int, 0, len(tok.Chunks)),
		Dropped:    tok.Stats.Dropped,
	}
	for _, c := range tok.Chunks {
		res.Chunks = append(res.Chunks, arrays(c))
	}
	writeJSON(w, http.StatusOK, res)
}

func (t *tokenizer) handleVocab(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.VocabResponse{
		NumPositionSubbeats:     t.vocab.NumPositionSubbeats,
		NumDurationSubbeats:     t.vocab.NumDurationSubbeats,
		DurationStepsPerQuarter: t.vocab.DurationStepsPerQuarter,
		PitchRange:              [2]int{t.vocab.MinPitch, t.vocab.MaxPitch},
		PadWord:                 model.PadWord(t.vocab).Array(),
		MaxSequenceLength:       t.cfg.Pipeline.MaxLength,
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func queryInt(r *http.Request, name string, dst *int) error {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return errors.Wrapf(model.ErrConfiguration, "%s must be an integer, got %q", name, raw)
	}
	*dst = n
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrEmptyTrack):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrFileParse), errors.Is(err, model.ErrConfiguration):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func arrays(seq model.Sequence) [][4]int {
	res := make([][4]int, len(seq))
	for i, w := range seq {
		res[i] = w.Array()
	}
	return res
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, model.ErrorResponse{Error: err.Error()})
}
