package server

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bastiangx/wordsplit/internal/metrics"
	"github.com/bastiangx/wordsplit/internal/utils"
	"github.com/bastiangx/wordsplit/pkg/config"
	"github.com/bastiangx/wordsplit/pkg/ngram"
	"github.com/bastiangx/wordsplit/pkg/split"
)

// Response codes.
const (
	CodeOK          = 200
	CodeBadRequest  = 400
	CodeUnavailable = 503
	CodeInternal    = 500
)

// Server handles msgpack IPC for one splitter. The splitter and the limits
// are swapped atomically on config reloads, so Reload may be called from
// another goroutine while Start runs.
type Server struct {
	splitter atomic.Pointer[split.Splitter]
	limits   atomic.Pointer[config.ServerConfig]
	metrics  *metrics.Metrics

	cfgMu      sync.Mutex
	cfg        *config.Config
	configPath string

	decoder  *msgpack.Decoder
	encoder  *msgpack.Encoder
	requests int
}

// NewServer creates a server on stdin and stdout.
func NewServer(sp *split.Splitter, cfg *config.Config, configPath string, m *metrics.Metrics) *Server {
	return NewServerWithIO(sp, cfg, configPath, m, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server reading requests from r and writing
// responses to w.
func NewServerWithIO(sp *split.Splitter, cfg *config.Config, configPath string, m *metrics.Metrics, r io.Reader, w io.Writer) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Server{
		metrics:    m,
		cfg:        cfg,
		configPath: configPath,
		decoder:    msgpack.NewDecoder(r),
		encoder:    msgpack.NewEncoder(w),
	}
	s.splitter.Store(sp)
	limits := cfg.Server
	s.limits.Store(&limits)
	return s
}

// Start answers requests until the input ends.
func (s *Server) Start() error {
	log.Debug("Starting server.")
	s.sendResponse(StatusResponse{Status: "ready"})

	for {
		var req Request
		if err := s.decoder.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				log.Warnf("Truncated request at end of input: %v", err)
				return nil
			}
			log.Errorf("Decoding request: %v", err)
			s.sendError("", "invalid msgpack request", CodeBadRequest)
			continue
		}
		s.handleRequest(req)
	}
}

// Reload rebuilds the splitter over the same store with the new config.
// The previous splitter stays in place when the new one cannot be built.
func (s *Server) Reload(cfg *config.Config) error {
	store := s.splitter.Load().Store()
	sp, err := split.New(store, cfg.Split.Options()...)
	s.metrics.ObserveReload(err)
	if err != nil {
		log.Errorf("Keeping previous splitter: %v", err)
		return err
	}

	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()

	limits := cfg.Server
	s.limits.Store(&limits)
	s.splitter.Store(sp)
	log.Infof("Splitter reloaded: decoder=%s max_variants=%d", sp.Decoder(), limits.MaxVariants)
	return nil
}

func (s *Server) handleRequest(req Request) {
	s.requests++
	if interval := s.limits.Load().StatsInterval; interval > 0 && s.requests%interval == 0 {
		st := s.splitter.Load().Stats()
		log.Infof("Served %s requests (cache hits %s, rejected %s)",
			utils.FormatWithCommas(int(st.Requests)), utils.FormatWithCommas(int(st.CacheHits)),
			utils.FormatWithCommas(int(st.Rejected)))
	}

	action := req.Action
	if action == "" {
		action = ActionSplit
	}

	var code int
	switch action {
	case ActionSplit:
		code = s.handleSplit(req)
	case ActionHealth:
		s.sendResponse(StatusResponse{ID: req.ID, Status: "ok"})
		code = CodeOK
	case ActionInfo:
		code = s.handleInfo(req)
	case ActionSetConfig:
		code = s.handleSetConfig(req)
	default:
		code = CodeBadRequest
		s.sendError(req.ID, fmt.Sprintf("unknown action: %s", req.Action), code)
	}
	s.metrics.ObserveRequest(action, code)
}

func (s *Server) handleSplit(req Request) int {
	limits := s.limits.Load()
	sp := s.splitter.Load()

	if len(req.Words) == 0 {
		s.sendError(req.ID, "missing 'w' parameter", CodeBadRequest)
		return CodeBadRequest
	}
	if len(req.Words) > limits.MaxTokens {
		msg := fmt.Sprintf("too many tokens: %d (max %d)", len(req.Words), limits.MaxTokens)
		s.sendError(req.ID, msg, CodeBadRequest)
		return CodeBadRequest
	}
	chars := 0
	for _, w := range req.Words {
		chars += utf8.RuneCountInString(w)
	}
	if chars > limits.MaxChars {
		msg := fmt.Sprintf("input too long: %d characters (max %d)", chars, limits.MaxChars)
		s.sendError(req.ID, msg, CodeBadRequest)
		return CodeBadRequest
	}

	limit := req.Limit
	if limit < 1 || limit > limits.MaxVariants {
		limit = limits.MaxVariants
	}

	start := time.Now()
	results, err := sp.Split(req.Words, limit)
	elapsed := time.Since(start)
	if err != nil {
		code := errorCode(err)
		s.sendError(req.ID, err.Error(), code)
		log.Debugf("Split %q failed: %v", req.Words, err)
		return code
	}

	ranked := results.Ranked()
	ranks := utils.CreateRankList(len(ranked))
	variants := make([]Variant, len(ranked))
	for i, r := range ranked {
		variants[i] = Variant{Words: r.Words, Rank: ranks[i]}
	}
	s.metrics.ObserveSplit(sp.Decoder(), elapsed, len(variants), results.FellBack())

	s.sendResponse(SplitResponse{
		ID:        req.ID,
		Variants:  variants,
		Count:     len(variants),
		FellBack:  results.FellBack(),
		InputRank: results.InputRank(),
		TimeTaken: elapsed.Microseconds(),
	})
	return CodeOK
}

func (s *Server) handleInfo(req Request) int {
	sp := s.splitter.Load()
	store := sp.Store()
	st := sp.Stats()

	info := InfoResponse{
		ID:          req.ID,
		Status:      "ok",
		Order:       store.Order(),
		MaxFreq:     store.MaxFreq(),
		Decoder:     sp.Decoder(),
		MaxVariants: s.limits.Load().MaxVariants,
		Requests:    st.Requests,
		CacheHits:   st.CacheHits,
	}
	if sized, ok := store.(interface{ Len() int }); ok {
		info.Entries = sized.Len()
	}
	s.sendResponse(info)
	return CodeOK
}

func (s *Server) handleSetConfig(req Request) int {
	if req.MaxVariants == nil && req.Decoder == nil {
		s.sendError(req.ID, "set_config needs 'max_variants' or 'decoder'", CodeBadRequest)
		return CodeBadRequest
	}
	if req.Decoder != nil {
		if _, err := split.DecoderByName(*req.Decoder, 3); err != nil {
			s.sendError(req.ID, err.Error(), CodeBadRequest)
			return CodeBadRequest
		}
	}
	if req.MaxVariants != nil && *req.MaxVariants < 1 {
		s.sendError(req.ID, "max_variants must be positive", CodeBadRequest)
		return CodeBadRequest
	}

	s.cfgMu.Lock()
	next := *s.cfg
	s.cfgMu.Unlock()

	if s.configPath != "" {
		if err := next.Update(s.configPath, req.MaxVariants, req.Decoder); err != nil {
			s.sendError(req.ID, fmt.Sprintf("failed to save config: %v", err), CodeInternal)
			return CodeInternal
		}
	} else {
		if req.MaxVariants != nil {
			next.Server.MaxVariants = *req.MaxVariants
		}
		if req.Decoder != nil {
			next.Split.Decoder = *req.Decoder
		}
	}

	if err := s.Reload(&next); err != nil {
		code := errorCode(err)
		s.sendError(req.ID, err.Error(), code)
		return code
	}
	s.sendResponse(StatusResponse{ID: req.ID, Status: "ok"})
	return CodeOK
}

func errorCode(err error) int {
	switch {
	case errors.Is(err, split.ErrInvalidArgument):
		return CodeBadRequest
	case errors.Is(err, ngram.ErrModelUnavailable):
		return CodeUnavailable
	default:
		return CodeInternal
	}
}

func (s *Server) sendResponse(response any) {
	if err := s.encoder.Encode(response); err != nil {
		log.Errorf("Encoding response: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.sendResponse(ErrorResponse{ID: id, Error: message, Code: code})
}
