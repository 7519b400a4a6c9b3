package player

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sendrec/mediashare/internal/httputil"
	"github.com/sendrec/mediashare/internal/share"
	"github.com/sendrec/mediashare/internal/validate"
)

type LinkResolver interface {
	Resolve(ctx context.Context, path string) (share.Link, error)
}

type Handler struct {
	resolver LinkResolver
	baseURL  string
}

func NewHandler(resolver LinkResolver, baseURL string) *Handler {
	return &Handler{resolver: resolver, baseURL: baseURL}
}

type playersResponse struct {
	Platform            Platform `json:"platform"`
	Browser             string   `json:"browser,omitempty"`
	VLCAvailable        bool     `json:"vlcAvailable"`
	JustPlayerAvailable bool     `json:"justPlayerAvailable"`
	DownloadURL         string   `json:"downloadUrl,omitempty"`
	VLCURL              string   `json:"vlcUrl,omitempty"`
	JustPlayerURL       string   `json:"justPlayerUrl,omitempty"`
}

// Players reports which external players can open ?path= on the calling
// browser. A share link is only resolved when at least one player applies.
func (h *Handler) Players(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := q.Get("path")
	if msg := validate.SharePath(p); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	mediaType := q.Get("type")
	if msg := validate.MediaType(mediaType); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	touch := 0
	if raw := q.Get("touch"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.WriteError(w, http.StatusBadRequest, "touch must be a non-negative integer")
			return
		}
		touch = n
	}

	client := Client{UserAgent: r.UserAgent(), MaxTouchPoints: touch}
	resp := playersResponse{
		Platform: client.Platform(),
		Browser:  client.Browser(),
	}
	if !client.Bot() {
		resp.VLCAvailable = VLCAvailable(client, mediaType)
		resp.JustPlayerAvailable = JustPlayerAvailable(client, mediaType)
	}

	if !resp.VLCAvailable && !resp.JustPlayerAvailable {
		httputil.WriteJSON(w, http.StatusOK, resp)
		return
	}

	link, err := h.resolver.Resolve(r.Context(), p)
	if err != nil {
		slog.Error("player: resolve share link", "path", p, "error", err)
		httputil.WriteError(w, http.StatusBadGateway, "failed to create share link")
		return
	}

	fileURL := share.DownloadURL(h.baseURL, link.Descriptor(), false)
	resp.DownloadURL = fileURL
	if resp.VLCAvailable {
		resp.VLCURL = VLCURL(client, fileURL, mediaType)
	}
	if resp.JustPlayerAvailable {
		resp.JustPlayerURL = JustPlayerURL(fileURL)
	}

	slog.Info("player: links issued",
		"platform", resp.Platform,
		"browser", resp.Browser,
		"vlc", resp.VLCAvailable,
		"just_player", resp.JustPlayerAvailable,
	)
	httputil.WriteJSON(w, http.StatusOK, resp)
}
