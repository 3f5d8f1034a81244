package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dropDatabas3/depotmaster/internal/authz"
	httperrors "github.com/dropDatabas3/depotmaster/internal/http/errors"
	"github.com/dropDatabas3/depotmaster/internal/http/middlewares"
	"github.com/dropDatabas3/depotmaster/internal/observability/logger"
	"github.com/dropDatabas3/depotmaster/internal/storage/s3"
	"github.com/dropDatabas3/depotmaster/internal/store"
	"github.com/dropDatabas3/depotmaster/internal/store/core"
)

// AttachmentHandler sube y sirve archivos. La metadata vive en el store; el
// contenido en object storage. Si no hay S3 configurado las rutas responden
// SERVICE_UNAVAILABLE en vez de desaparecer del router.
type AttachmentHandler struct {
	attachments store.AttachmentRepository
	blobs       *s3.Client
	policy      *authz.Policy
	deps        middlewares.AuthDeps
	maxBytes    int64
}

func NewAttachmentHandler(attachments store.AttachmentRepository, blobs *s3.Client, policy *authz.Policy, deps middlewares.AuthDeps, maxBytes int64) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments, blobs: blobs, policy: policy, deps: deps, maxBytes: maxBytes}
}

func (h *AttachmentHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middlewares.RequireAuth(h.deps))
		r.Use(middlewares.RequireRule(h.policy, authz.RuleAttachmentRead))
		r.Get("/v1/attachments", h.list)
		r.Get("/v1/attachments/{id}", h.get)
		r.Get("/v1/attachments/{id}/download", h.download)
	})
	r.Group(func(r chi.Router) {
		r.Use(middlewares.RequireAuth(h.deps))
		r.Use(middlewares.RequireRule(h.policy, authz.RuleAttachmentWrite))
		r.Post("/v1/attachments", h.upload)
		r.Delete("/v1/attachments/{id}", h.remove)
	})
}

type attachmentView struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

func toAttachmentView(a *core.Attachment) attachmentView {
	return attachmentView{
		ID:          a.ID,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		SizeBytes:   a.SizeBytes,
		CreatedAt:   a.CreatedAt,
	}
}

func (h *AttachmentHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.attachments.List(r.Context())
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInternal.WithCause(err))
		return
	}
	out := make([]attachmentView, 0, len(items))
	for i := range items {
		out = append(out, toAttachmentView(&items[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AttachmentHandler) get(w http.ResponseWriter, r *http.Request) {
	a, err := h.attachments.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAttachmentView(a))
}

func (h *AttachmentHandler) upload(w http.ResponseWriter, r *http.Request) {
	if h.blobs == nil {
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithDetail("object storage no configurado"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		httperrors.WriteError(w, httperrors.ErrBodyTooLarge.WithCause(err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("falta el campo multipart 'file'"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := s3.NewKey(header.Filename)
	if err := h.blobs.Put(r.Context(), key, file, contentType, header.Size); err != nil {
		httperrors.WriteError(w, httperrors.ErrInternal.WithCause(err))
		return
	}

	a := core.Attachment{
		ID:          uuid.NewString(),
		Key:         key,
		FileName:    header.Filename,
		ContentType: contentType,
		SizeBytes:   header.Size,
	}
	if err := h.attachments.Insert(r.Context(), &a); err != nil {
		// El blob quedó huérfano: lo limpiamos para no acumular basura.
		if derr := h.blobs.Delete(r.Context(), key); derr != nil {
			logger.Named("http").Warn("no se pudo limpiar blob huérfano", logger.String("key", key), logger.Err(derr))
		}
		httperrors.WriteError(w, httperrors.ErrInternal.WithCause(err))
		return
	}
	writeJSON(w, http.StatusCreated, toAttachmentView(&a))
}

func (h *AttachmentHandler) download(w http.ResponseWriter, r *http.Request) {
	if h.blobs == nil {
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithDetail("object storage no configurado"))
		return
	}
	a, err := h.attachments.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	// Preferimos redirigir a una URL firmada; si el backend no firma (minio
	// mal configurado, etc.) servimos el contenido nosotros.
	if url, err := h.blobs.PresignGet(r.Context(), a.Key); err == nil {
		http.Redirect(w, r, url, http.StatusTemporaryRedirect)
		return
	}
	body, contentType, err := h.blobs.Get(r.Context(), a.Key)
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInternal.WithCause(err))
		return
	}
	defer body.Close()
	if contentType == "" {
		contentType = a.ContentType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+a.FileName+`"`)
	if _, err := io.Copy(w, body); err != nil {
		logger.Named("http").Warn("descarga interrumpida", logger.String("attachment_id", a.ID), logger.Err(err))
	}
}

func (h *AttachmentHandler) remove(w http.ResponseWriter, r *http.Request) {
	a, err := h.attachments.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if h.blobs != nil {
		if err := h.blobs.Delete(r.Context(), a.Key); err != nil {
			logger.Named("http").Warn("no se pudo borrar blob", logger.String("key", a.Key), logger.Err(err))
		}
	}
	if err := h.attachments.Delete(r.Context(), a.ID); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
