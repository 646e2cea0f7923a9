package apihttp

import (
	"net/http"
	"strings"

	"fuel-dashboard/internal/audit"
	masterdataapp "fuel-dashboard/internal/masterdata/application"
)

func (h *Handler) handleListPlazas(w http.ResponseWriter, r *http.Request) {
	plazas, err := h.admin.ListPlazas(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plazas)
}

func (h *Handler) handleCreatePlaza(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	plaza, err := h.admin.CreatePlaza(r.Context(), req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.record(r, id, audit.ActionPlazaCreated, "plaza", plaza.ID, plaza.ID, map[string]any{"name": plaza.Name})
	writeJSON(w, http.StatusCreated, plaza)
}

func (h *Handler) handleDeletePlaza(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	plazaID := r.PathValue("id")
	if err := h.admin.DeletePlaza(r.Context(), plazaID); err != nil {
		h.fail(w, r, err)
		return
	}
	h.record(r, id, audit.ActionPlazaDeleted, "plaza", plazaID, plazaID, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListGenerators(w http.ResponseWriter, r *http.Request) {
	plazaID := strings.TrimSpace(r.URL.Query().Get("plaza_id"))
	gens, err := h.admin.ListGenerators(r.Context(), plazaID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gens)
}

func (h *Handler) handleCreateGenerator(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req struct {
		PlazaID string `json:"plaza_id"`
		Name    string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	gen, err := h.admin.CreateGenerator(r.Context(), req.PlazaID, req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.record(r, id, audit.ActionGeneratorAdded, "generator", gen.ID, gen.PlazaID, map[string]any{"name": gen.Name})
	writeJSON(w, http.StatusCreated, gen)
}

func (h *Handler) handleDeleteGenerator(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	genID := r.PathValue("id")
	if err := h.admin.DeleteGenerator(r.Context(), genID); err != nil {
		h.fail(w, r, err)
		return
	}
	h.record(r, id, audit.ActionGeneratorDelete, "generator", genID, "", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
		Role     string `json:"role"`
		PlazaID  string `json:"plaza_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	profile, err := h.admin.CreateUser(r.Context(), masterdataapp.NewUser{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
		PlazaID:  req.PlazaID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.record(r, id, audit.ActionUserCreated, "profile", profile.UserID, profile.PlazaID, map[string]any{
		"email": profile.Email,
		"role":  profile.Role,
	})
	writeJSON(w, http.StatusCreated, profile)
}
