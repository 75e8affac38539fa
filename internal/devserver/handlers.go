package devserver

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
)

// getPortfolio handles GET /api/portfolio.
func (s *Server) getPortfolio(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.GetPortfolio(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updatePersonal(w http.ResponseWriter, r *http.Request) {
	var info models.PersonalInfo
	if err := decodeJSON(w, r, &info); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.svc.UpdatePersonalInfo(r.Context(), info); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{Success: true, Message: "Personal info updated successfully"})
}

func (s *Server) updateSocial(w http.ResponseWriter, r *http.Request) {
	var links models.SocialLinks
	if err := decodeJSON(w, r, &links); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.svc.UpdateSocialLinks(r.Context(), links); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{Success: true, Message: "Social links updated successfully"})
}

// readItem decodes the body as an item of list.
func readItem(w http.ResponseWriter, r *http.Request, list models.ListName) (models.Item, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		return nil, apperr.Validation("decode", "request body too large")
	}
	item, err := list.DecodeItem(body)
	if err != nil {
		return nil, apperr.Validation("decode", "invalid JSON body")
	}
	return item, nil
}

func noun(list models.ListName) string {
	seg := list.PathSegment()
	return strings.ToUpper(seg[:1]) + seg[1:]
}

func (s *Server) createItem(list models.ListName) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := readItem(w, r, list)
		if err != nil {
			s.writeError(w, err)
			return
		}
		created, err := s.svc.CreateItem(r.Context(), list, item)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, okResponse{
			Success: true,
			Message: noun(list) + " added successfully",
			Data:    created,
		})
	}
}

func (s *Server) updateItem(list models.ListName) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := readItem(w, r, list)
		if err != nil {
			s.writeError(w, err)
			return
		}
		item = item.WithID(chi.URLParam(r, "id"))
		if err := s.svc.UpdateItem(r.Context(), list, item); err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, okResponse{Success: true, Message: noun(list) + " updated successfully"})
	}
}

func (s *Server) deleteItem(list models.ListName) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.svc.DeleteItem(r.Context(), list, chi.URLParam(r, "id")); err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, okResponse{Success: true, Message: noun(list) + " deleted successfully"})
	}
}
