package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jsphweid/cpword/config"
	"github.com/jsphweid/cpword/constants"
	"github.com/jsphweid/cpword/model"
	"github.com/jsphweid/cpword/sample"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHandler() http.Handler {
	cfg := config.DefaultConfig()
	cfg.Server.AllowedOrigins = []string{"http://example.com"}
	return newHandler(cfg, constants.DefaultVocabulary(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func midiBody(t *testing.T, score model.Score) []byte {
	var buf bytes.Buffer
	_, err := sample.Create(score).WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

// threeFour is the 3/4 example: a quarter and two eighths, then a half note
// starting the second bar.
func threeFour() model.Score {
	return model.Score{
		Resolution:     480,
		TimeSignatures: []model.TimeSignatureChange{{Numerator: 3, Denominator: 4}},
		Notes: []model.RawNote{
			{OnsetTick: 0, EndTick: 480, Pitch: 60, Velocity: 90},
			{OnsetTick: 480, EndTick: 720, Pitch: 62, Velocity: 90},
			{OnsetTick: 720, EndTick: 960, Pitch: 64, Velocity: 90},
			{OnsetTick: 1440, EndTick: 2400, Pitch: 65, Velocity: 90},
		},
		EndTick: 2880,
	}
}

func post(t *testing.T, h http.Handler, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestTokenize(t *testing.T) {
	rec := post(t, testHandler(), "/tokenize", midiBody(t, threeFour()))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res model.TokenizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	assert := assert.New(t)
	assert.Equal(480, res.Resolution)
	assert.Equal(4, res.NumNotes)
	assert.Equal([][4]int{
		{1, 0, 60, 16},
		{0, 5, 62, 8},
		{0, 8, 64, 8},
		{1, 0, 65, 32},
	}, res.Words)
	assert.Equal([][][4]int{res.Words}, res.Chunks)
	assert.Equal(0, res.Dropped)
}

func TestTokenizeMaxLength(t *testing.T) {
	rec := post(t, testHandler(), "/tokenize?max_length=2", midiBody(t, threeFour()))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res model.TokenizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Chunks, 2)
	assert.Equal(t, res.Words[:2], res.Chunks[0])
	assert.Equal(t, res.Words[3:], res.Chunks[1])
	assert.Equal(t, 1, res.Dropped)
}

func TestTokenizeErrors(t *testing.T) {
	h := testHandler()
	empty := model.Score{Resolution: 480, EndTick: 1920}

	cases := map[string]struct {
		target string
		body   []byte
		status int
	}{
		"garbage":        {"/tokenize", []byte("MThd nonsense"), http.StatusBadRequest},
		"no notes":       {"/tokenize", midiBody(t, empty), http.StatusUnprocessableEntity},
		"missing track":  {"/tokenize?track=3", midiBody(t, threeFour()), http.StatusUnprocessableEntity},
		"negative track": {"/tokenize?track=-1", midiBody(t, threeFour()), http.StatusBadRequest},
		"bad length":     {"/tokenize?max_length=0", midiBody(t, threeFour()), http.StatusBadRequest},
		"not a number":   {"/tokenize?track=first", midiBody(t, threeFour()), http.StatusBadRequest},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			rec := post(t, h, c.target, c.body)
			assert.Equal(t, c.status, rec.Code)

			var res model.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.NotEmpty(t, res.Error)
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestTokenizeBodyErrors(t *testing.T) {
	h := testHandler()

	rec := post(t, h, "/tokenize", make([]byte, maxUploadBytes+1))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/tokenize", failingReader{})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVocab(t *testing.T) {
	rec := httptest.NewRecorder()
	testHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/vocab", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var res model.VocabResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, [4]int{2, 16, 128, 64}, res.PadWord)
	assert.Equal(t, [2]int{0, 127}, res.PitchRange)
	assert.Equal(t, 512, res.MaxSequenceLength)
}

func TestCORS(t *testing.T) {
	h := testHandler()

	req := httptest.NewRequest(http.MethodGet, "/vocab", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/vocab", nil)
	req.Header.Set("Origin", "http://elsewhere.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	testHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tokenize", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
