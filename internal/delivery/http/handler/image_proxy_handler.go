package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"scan-review-service/internal/infrastructure/storage"
	"scan-review-service/internal/usecase"
	"scan-review-service/pkg/response"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// ArtifactFetcher reads stored objects by key
type ArtifactFetcher interface {
	GetByKey(ctx context.Context, key string) (*storage.Object, error)
}

type ImageProxyHandler struct {
	accessUsecase usecase.ReportAccessUsecase
	artifacts     ArtifactFetcher
	log           *logrus.Logger
}

func NewImageProxyHandler(accessUsecase usecase.ReportAccessUsecase, artifacts ArtifactFetcher, log *logrus.Logger) *ImageProxyHandler {
	return &ImageProxyHandler{
		accessUsecase: accessUsecase,
		artifacts:     artifacts,
		log:           log,
	}
}

// Serve streams an artifact to a caller allowed to read its namespace
func (h *ImageProxyHandler) Serve(w http.ResponseWriter, r *http.Request) {
	callerID, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	key := mux.Vars(r)["key"]
	if err := h.accessUsecase.AuthorizeArtifact(r.Context(), callerID, key); err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidKey):
			response.BadRequest(w, "Invalid image path")
		case errors.Is(err, usecase.ErrForbidden):
			response.Forbidden(w, "You are not allowed to access this image")
		default:
			response.InternalServerError(w, "Failed to authorize image access")
		}
		return
	}

	object, err := h.artifacts.GetByKey(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			response.NotFound(w, "Image not found")
			return
		}
		h.log.WithField("key", key).Warnf("Failed to read artifact: %+v", err)
		response.BadGateway(w, "Failed to read image")
		return
	}

	w.Header().Set("Content-Type", object.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(object.Data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(object.Data)
}
