// Package api serves the caption compiler over HTTP.
package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/vccd/internal/captions"
	"github.com/samcharles93/vccd/internal/compiler"
	"github.com/samcharles93/vccd/internal/keyvalues"
	"github.com/samcharles93/vccd/internal/logger"
	"github.com/samcharles93/vccd/internal/version"
	"github.com/samcharles93/vccd/pkg/vccd"
)

const (
	// DefaultMaxSourceBytes bounds the accepted caption source size.
	DefaultMaxSourceBytes int64 = 64 << 20

	HeaderCaptionLanguage = "X-Caption-Language"
	HeaderCaptionDigest   = "X-Caption-Digest"
	HeaderCaptionEntries  = "X-Caption-Entries"
	HeaderRequestID       = "X-Request-Id"
)

type Config struct {
	// AllowCollisions is the default when a request does not set allow_collisions.
	AllowCollisions bool
	MaxSourceBytes  int64
}

type Server struct {
	log logger.Logger
	cfg Config
}

func NewServer(log logger.Logger, cfg Config) *Server {
	if log == nil {
		log = logger.Discard()
	}
	if cfg.MaxSourceBytes <= 0 {
		cfg.MaxSourceBytes = DefaultMaxSourceBytes
	}
	return &Server{log: log, cfg: cfg}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.POST("/v1/compile", s.handleCompile)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.String(),
	})
}

func (s *Server) handleCompile(c *echo.Context) error {
	requestID := uuid.NewString()
	log := s.log.With("request_id", requestID)
	c.Response().Header().Set(HeaderRequestID, requestID)

	allow := s.cfg.AllowCollisions
	if q := c.QueryParam("allow_collisions"); q != "" {
		v, err := strconv.ParseBool(q)
		if err != nil {
			return writeBadRequest(c, fmt.Sprintf("allow_collisions: invalid boolean %q", q))
		}
		allow = v
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, s.cfg.MaxSourceBytes+1))
	if err != nil {
		return writeBadRequest(c, "read body: "+err.Error())
	}
	if int64(len(raw)) > s.cfg.MaxSourceBytes {
		return writeError(c, http.StatusRequestEntityTooLarge, "source_too_large",
			fmt.Sprintf("caption source exceeds %d bytes", s.cfg.MaxSourceBytes))
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return writeBadRequest(c, "empty caption source")
	}

	src, err := captions.FromBytes(raw, log)
	if err != nil {
		return writeCompileError(c, log, err)
	}
	res, err := compiler.New(log, compiler.Options{AllowCollisions: allow}).Compile(c.Request().Context(), src)
	if err != nil {
		return writeCompileError(c, log, err)
	}

	log.Info("compiled captions",
		"language", res.Language,
		"entries", res.Entries,
		"blocks", res.Blocks,
		"bytes", len(res.Data))

	h := c.Response().Header()
	h.Set(echo.HeaderContentType, echo.MIMEOctetStream)
	h.Set(echo.HeaderContentLength, strconv.Itoa(len(res.Data)))
	h.Set(HeaderCaptionLanguage, res.Language)
	h.Set(HeaderCaptionDigest, res.Digest)
	h.Set(HeaderCaptionEntries, strconv.Itoa(res.Entries))
	c.Response().WriteHeader(http.StatusOK)
	_, err = c.Response().Write(res.Data)
	return err
}

func writeCompileError(c *echo.Context, log logger.Logger, err error) error {
	switch {
	case errors.Is(err, keyvalues.ErrSyntax),
		errors.Is(err, captions.ErrMissingKey),
		errors.Is(err, captions.ErrBadToken):
		return writeError(c, http.StatusBadRequest, "invalid_source", err.Error())
	case errors.Is(err, vccd.ErrEntryTooLarge):
		return writeError(c, http.StatusUnprocessableEntity, "entry_too_large", err.Error())
	case errors.Is(err, vccd.ErrHashCollision):
		return writeError(c, http.StatusUnprocessableEntity, "hash_collision", err.Error())
	default:
		log.Error("compile failed", "error", err)
		return writeError(c, http.StatusInternalServerError, "server_error", "compile failed")
	}
}
