package apihttp

import (
	"net/http"
	"strconv"

	"fuel-dashboard/internal/reporting/export"
)

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	res, err := h.login.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	view, err := h.reports.Home(r.Context(), viewerOf(id))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	viewer := viewerOf(id)
	format, wantsFile, err := exportFormat(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if wantsFile && !exportAllowed(w, viewer) {
		return
	}
	txs, err := h.reports.ListTransactions(r.Context(), viewer)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if wantsFile {
		h.download(w, r, id, "transactions", export.TransactionsTable(txs), format)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h *Handler) handleUsers(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	viewer := viewerOf(id)
	format, wantsFile, err := exportFormat(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list := h.reports.ListUsers
	if selectable, _ := strconv.ParseBool(r.URL.Query().Get("selectable")); selectable {
		list = h.reports.SelectableUsers
	}
	users, err := list(r.Context(), viewer)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if wantsFile {
		h.download(w, r, id, "users", export.UsersTable(users), format)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) handleUserDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	viewer := viewerOf(id)
	format, wantsFile, err := exportFormat(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if wantsFile && !exportAllowed(w, viewer) {
		return
	}
	detail, err := h.reports.UserDetail(r.Context(), viewer, r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if wantsFile {
		h.download(w, r, id, "user_detail_"+detail.User.Name, export.UserDetailTable(detail), format)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleMultiUser(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req struct {
		UserIDs []string `json:"user_ids"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	format, wantsFile, err := exportFormat(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	report, err := h.reports.MultiUserDetail(r.Context(), viewerOf(id), req.UserIDs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if wantsFile {
		h.download(w, r, id, "multi_user_detail", export.CombinedTable(report), format)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
