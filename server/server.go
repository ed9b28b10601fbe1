// Package server is the storage/search service: it keeps ciphertexts and
// answers trapdoor queries with partially decrypted ciphertexts.
package server

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/AUKUS561/LSABEMA/LSABE"
	"github.com/AUKUS561/LSABEMA/logger"
	"github.com/AUKUS561/LSABEMA/matcher"
	"github.com/AUKUS561/LSABEMA/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// MaxArtifactSize bounds every uploaded file.
const MaxArtifactSize = 16 << 20

const NotFoundMessage = "Message was not found."

type Handler struct {
	keys    *storage.Keystore
	store   *storage.CipherStore
	matcher *matcher.Matcher
	log     *zap.Logger
}

func NewHandler(keys *storage.Keystore, store *storage.CipherStore, m *matcher.Matcher, log *zap.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{keys: keys, store: store, matcher: m, log: log}
}

func (h *Handler) RegisterRoutes(server *gin.Engine) {
	server.GET("/heartbeat", h.heartbeat)
	server.POST("/global-setup", h.globalSetup)
	server.POST("/authority-setup", h.authoritySetup)
	server.POST("/authority-setup/:id", h.authoritySetup)
	server.POST("/store", h.storeCiphertext)
	server.POST("/search", h.search)
	server.POST("/clear-messages", h.clearMessages)
}

// NewEngine builds the gin engine with recovery and CORS.
func NewEngine(h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST"}
	engine.Use(cors.New(config))
	h.RegisterRoutes(engine)
	return engine
}

// Serve runs engine on addr until ctx is done.
func Serve(ctx context.Context, addr string, engine *gin.Engine) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}

// SearchResponse is the body of a successful /search.
type SearchResponse struct {
	CTout   []string `json:"CTout"`
	Scanned int      `json:"scanned"`
	Failed  int      `json:"failed"`
}

func formFile(c *gin.Context, name string) ([]byte, error) {
	fh, err := c.FormFile(name)
	if err != nil {
		return nil, errors.Errorf("missing file %s", name)
	}
	if fh.Size > MaxArtifactSize {
		return nil, errors.Errorf("file %s exceeds %d bytes", name, MaxArtifactSize)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", name)
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, MaxArtifactSize))
}

func (h *Handler) heartbeat(c *gin.Context) {
	c.String(http.StatusOK, "Alive")
}

func (h *Handler) globalSetup(c *gin.Context) {
	pp, err := formFile(c, "PP")
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	// the master key is optional, the service never needs it
	msk, _ := formFile(c, "MSK")
	if err := h.keys.SaveGlobalRaw(pp, msk); err != nil {
		h.log.Sugar().Errorf("[global-setup] %v", err)
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	h.log.Sugar().Infof("[global-setup] public parameters replaced")
	c.String(http.StatusOK, "OK")
}

func (h *Handler) authoritySetup(c *gin.Context) {
	id := 1
	if s := c.Param("id"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			c.String(http.StatusBadRequest, "bad authority id %q", s)
			return
		}
		id = v
	}
	att, err := formFile(c, "ATT")
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	apk, err := formFile(c, "APK")
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	ask, _ := formFile(c, "ASK")
	if err := h.keys.SaveAuthorityRaw(id, att, ask, apk); err != nil {
		h.log.Sugar().Errorf("[authority-setup] %d: %v", id, err)
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	h.log.Sugar().Infof("[authority-setup] authority %d replaced", id)
	c.String(http.StatusOK, "OK")
}

func (h *Handler) storeCiphertext(c *gin.Context) {
	raw, err := formFile(c, "CT")
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	if _, err := LSABE.UnmarshalCiphertext(raw); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	id, err := h.store.Put(raw)
	if err != nil {
		h.log.Sugar().Errorf("[store] %v", err)
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	h.log.Sugar().Infof("[store] %s", id)
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (h *Handler) search(c *gin.Context) {
	rawTD, err := formFile(c, "TD")
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	rawTK, err := formFile(c, "TK")
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	td, err := LSABE.UnmarshalTrapdoor(rawTD)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	tk, err := LSABE.UnmarshalTransformKey(rawTK)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.store.Items()
	if err != nil {
		h.log.Sugar().Errorf("[search] read store: %v", err)
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	report, err := h.matcher.Scan(c.Request.Context(), items, td, tk)
	if err != nil {
		c.String(http.StatusServiceUnavailable, err.Error())
		return
	}
	h.log.Sugar().Infof("[search] scanned %d, matched %d, failed %d", report.Scanned, report.Matched, report.Failed)

	if report.Matched == 0 {
		c.String(http.StatusNotFound, NotFoundMessage)
		return
	}
	resp := SearchResponse{
		CTout:   make([]string, 0, len(report.Results)),
		Scanned: report.Scanned,
		Failed:  report.Failed,
	}
	for _, out := range report.Results {
		resp.CTout = append(resp.CTout, string(LSABE.MarshalPartialCiphertext(out)))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) clearMessages(c *gin.Context) {
	n, err := h.store.Clear()
	if err != nil {
		h.log.Sugar().Errorf("[clear-messages] %v", err)
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	h.log.Sugar().Infof("[clear-messages] removed %d", n)
	c.JSON(http.StatusOK, gin.H{"removed": n})
}
