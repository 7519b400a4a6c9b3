package share

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sendrec/mediashare/internal/httputil"
	"github.com/sendrec/mediashare/internal/validate"
)

const maxPresignExpiry = 1 * time.Hour

type Repository interface {
	Lister
	Creator
	Get(ctx context.Context, hash string) (Link, error)
}

type ObjectStorage interface {
	GenerateDownloadURL(ctx context.Context, path string, expiry time.Duration) (string, error)
	GenerateDownloadURLWithDisposition(ctx context.Context, path string, filename string, expiry time.Duration) (string, error)
	HeadObject(ctx context.Context, path string) (int64, string, error)
}

type Handler struct {
	repo    Repository
	storage ObjectStorage
	baseURL string
	now     func() time.Time
}

func NewHandler(repo Repository, storage ObjectStorage, baseURL string) *Handler {
	return &Handler{repo: repo, storage: storage, baseURL: baseURL, now: time.Now}
}

type linkResponse struct {
	Hash              string    `json:"hash"`
	Path              string    `json:"path"`
	Token             string    `json:"token"`
	Expire            int64     `json:"expire"`
	PasswordProtected bool      `json:"passwordProtected"`
	DownloadURL       string    `json:"downloadUrl"`
	CreatedAt         time.Time `json:"createdAt"`
}

func (h *Handler) toResponse(link Link) linkResponse {
	return linkResponse{
		Hash:              link.Hash,
		Path:              link.Path,
		Token:             link.Token,
		Expire:            link.Expire,
		PasswordProtected: link.PasswordProtected(),
		DownloadURL:       DownloadURL(h.baseURL, link.Descriptor(), false),
		CreatedAt:         link.CreatedAt,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("path")
	if msg := validate.SharePath(p); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	links, err := h.repo.List(r.Context(), p)
	if err != nil {
		slog.Error("share: list failed", "path", p, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list shares")
		return
	}

	resp := make([]linkResponse, 0, len(links))
	for _, link := range links {
		resp = append(resp, h.toResponse(link))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

type createRequest struct {
	Password string `json:"password"`
	Expires  string `json:"expires"`
	Unit     string `json:"unit"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("path")
	if msg := validate.SharePath(p); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	var req createRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if msg := validate.SharePassword(req.Password); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	expires := 0
	if req.Expires != "" {
		n, err := strconv.Atoi(req.Expires)
		if err != nil || n < 0 {
			httputil.WriteError(w, http.StatusBadRequest, "expires must be a non-negative integer")
			return
		}
		expires = n
	}
	unit := req.Unit
	if unit == "" {
		unit = DefaultUnit
	}
	if _, err := Lifetime(expires, unit); err != nil {
		if errors.Is(err, ErrTooLong) {
			httputil.WriteError(w, http.StatusBadRequest, "expires is too large")
			return
		}
		httputil.WriteError(w, http.StatusBadRequest, "unit must be one of seconds, minutes, hours, days")
		return
	}

	link, err := h.repo.Create(r.Context(), CreateRequest{
		Path:     p,
		Password: req.Password,
		Expires:  expires,
		Unit:     unit,
	})
	if err != nil {
		slog.Error("share: create failed", "path", p, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create share")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, h.toResponse(link))
}

// PublicDownload serves /api/public/dl/{hash}: it checks the share token,
// expiry and password, then redirects to a short-lived presigned object URL.
func (h *Handler) PublicDownload(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")

	link, err := h.repo.Get(r.Context(), hash)
	if errors.Is(err, ErrNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "share not found")
		return
	}
	if err != nil {
		slog.Error("share: lookup failed", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load share")
		return
	}

	now := h.now()
	// Presigned URLs carry whole seconds, so a link in its last second is done.
	if link.Expired(now) || (link.Expire != 0 && time.Unix(link.Expire, 0).Sub(now) < time.Second) {
		httputil.WriteError(w, http.StatusGone, "link expired")
		return
	}

	token := r.URL.Query().Get("token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(link.Token)) != 1 {
		httputil.WriteError(w, http.StatusForbidden, "invalid token")
		return
	}

	if link.PasswordProtected() && !CheckPassword(link.PasswordHash, r.Header.Get("X-Share-Password")) {
		httputil.WriteError(w, http.StatusUnauthorized, "password required")
		return
	}

	if _, _, err := h.storage.HeadObject(r.Context(), link.Path); err != nil {
		httputil.WriteError(w, http.StatusNotFound, "file not found")
		return
	}

	expiry := maxPresignExpiry
	if link.Expire != 0 {
		if remaining := time.Unix(link.Expire, 0).Sub(now); remaining < expiry {
			expiry = remaining
		}
	}

	var target string
	if r.URL.Query().Get("inline") == "true" {
		target, err = h.storage.GenerateDownloadURL(r.Context(), link.Path, expiry)
	} else {
		target, err = h.storage.GenerateDownloadURLWithDisposition(r.Context(), link.Path, path.Base(link.Path), expiry)
	}
	if err != nil {
		slog.Error("share: presign failed", "path", link.Path, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to generate download URL")
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}
