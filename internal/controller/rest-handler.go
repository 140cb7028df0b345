package controller

import (
	"errors"
	"net/http"

	"github.com/jamqueue/server/internal/provider/lyrics"
	"github.com/jamqueue/server/pkg/rest"
)

func (c controller) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "q was not provided"})
		return
	}

	tracks, err := c.searchProvider.SearchTracks(r.Context(), query)
	if err != nil {
		c.logger.WarnContext(r.Context(), "search failed", "query", query, "error", err)
		rest.WriteJSON(w, http.StatusBadGateway, rest.Envelope{"error": "search unavailable"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, tracks)
}

func (c controller) getLyrics(w http.ResponseWriter, r *http.Request) {
	trackName := r.URL.Query().Get("track_name")
	artistName := r.URL.Query().Get("artist_name")
	if trackName == "" || artistName == "" {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "track_name and artist_name are required"})
		return
	}

	result, err := c.lyricsProvider.GetLyrics(r.Context(), trackName, artistName)
	if err != nil {
		if errors.Is(err, lyrics.ErrNotFound) {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "lyrics not found"})
			return
		}
		c.logger.WarnContext(r.Context(), "lyrics lookup failed", "track", trackName, "error", err)
		rest.WriteJSON(w, http.StatusBadGateway, rest.Envelope{"error": "lyrics unavailable"})
		return
	}

	if result.Type == lyrics.TypeSynced {
		rest.WriteJSON(w, http.StatusOK, rest.Envelope{"type": result.Type, "lyrics": result.Lines})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"type": result.Type, "lyrics": result.Text})
}

type adminAuthInput struct {
	Password string `json:"password" validate:"required"`
}

// adminAuth is a pre-flight password check for admin UIs. The admin role
// itself is only granted over the websocket.
func (c controller) adminAuth(w http.ResponseWriter, r *http.Request) {
	var req adminAuthInput

	if err := rest.ReadJSON(r, &req); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	if !c.jukeboxService.VerifyAdminSecret(req.Password) {
		rest.WriteJSON(w, http.StatusUnauthorized, rest.Envelope{"success": false, "message": "invalid password"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"success": true})
}

func (c controller) health(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"status": "ok"})
}
