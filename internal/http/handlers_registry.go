package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"igreja/internal/core"
	"igreja/internal/services"
)

func (s *Server) handleGetOrganization(w http.ResponseWriter, r *http.Request, _ core.Role) {
	org, ok, err := s.registry.Organization(r.Context())
	if err != nil {
		writeError(w, r, "get_organization", err)
		return
	}
	if !ok {
		writeError(w, r, "get_organization", &core.NotFoundError{Entity: "organization"})
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (s *Server) handlePutOrganization(w http.ResponseWriter, r *http.Request, role core.Role) {
	if !role.CanWriteRegistry() {
		writeError(w, r, "save_organization", core.ErrReadOnly)
		return
	}
	var req organizationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	org, err := req.toOrganization()
	if err != nil {
		writeError(w, r, "save_organization", err)
		return
	}

	saved, created, err := s.registry.UpsertOrganization(r.Context(), true, org)
	if err != nil {
		writeError(w, r, "save_organization", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, saved)
}

func (s *Server) handleDeleteOrganization(w http.ResponseWriter, r *http.Request, role core.Role) {
	if err := s.registry.DeleteOrganization(r.Context(), role.CanWriteRegistry()); err != nil {
		writeError(w, r, "delete_organization", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request, _ core.Role) {
	members, err := s.registry.Members(r.Context())
	if err != nil {
		writeError(w, r, "list_members", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": members})
}

func (s *Server) handleBirthdays(w http.ResponseWriter, r *http.Request, _ core.Role) {
	verr := &core.ValidationError{}
	month := queryInt(r, "month", int(time.Now().Month()), verr)
	if err := verr.OrNil(); err != nil {
		writeError(w, r, "birthdays", err)
		return
	}
	members, err := s.registry.Birthdays(r.Context(), month)
	if err != nil {
		writeError(w, r, "birthdays", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"month": month, "members": members})
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request, _ core.Role) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	m, err := s.registry.Member(r.Context(), id)
	if err != nil {
		writeError(w, r, "get_member", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request, role core.Role) {
	if !role.CanWriteRegistry() {
		writeError(w, r, "create_member", core.ErrReadOnly)
		return
	}
	var req memberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	m, err := req.toMember()
	if err != nil {
		writeError(w, r, "create_member", err)
		return
	}
	created, err := s.registry.AddMember(r.Context(), true, m)
	if err != nil {
		writeError(w, r, "create_member", err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/members/"+strconv.FormatInt(created.ID, 10)).
		Body(created).
		Write(w)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request, role core.Role) {
	if !role.CanWriteRegistry() {
		writeError(w, r, "update_member", core.ErrReadOnly)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var req memberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	m, err := req.toMember()
	if err != nil {
		writeError(w, r, "update_member", err)
		return
	}
	updated, err := s.registry.UpdateMember(r.Context(), true, id, m)
	if err != nil {
		writeError(w, r, "update_member", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleBulkUpdateMembers applies a list of edits, each carrying its id.
func (s *Server) handleBulkUpdateMembers(w http.ResponseWriter, r *http.Request, role core.Role) {
	if !role.CanWriteRegistry() {
		writeError(w, r, "update_members", core.ErrReadOnly)
		return
	}
	var reqs []memberRequest
	if err := decodeJSON(w, r, &reqs); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	members := make([]core.Member, 0, len(reqs))
	for _, req := range reqs {
		m, err := req.toMember()
		if err != nil {
			writeError(w, r, "update_members", rowError(len(members), req.ID, err))
			return
		}
		members = append(members, m)
	}

	updated, err := s.registry.UpdateMembers(r.Context(), true, members)
	if err != nil {
		writeError(w, r, "update_members", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request, role core.Role) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.registry.DeleteMember(r.Context(), role.CanWriteRegistry(), id); err != nil {
		writeError(w, r, "delete_member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request, _ core.Role) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	m, err := s.registry.Member(r.Context(), id)
	if err != nil {
		writeError(w, r, "get_photo", err)
		return
	}
	if len(m.Photo) == 0 {
		writeError(w, r, "get_photo", &core.NotFoundError{Entity: "photo of member", ID: strconv.FormatInt(id, 10)})
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(m.Photo))
	w.Header().Set("Content-Length", strconv.Itoa(len(m.Photo)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(m.Photo)
}

// handlePutPhoto stores the raw request body as the member photo.
func (s *Server) handlePutPhoto(w http.ResponseWriter, r *http.Request, role core.Role) {
	if !role.CanWriteRegistry() {
		writeError(w, r, "set_photo", core.ErrReadOnly)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	photo, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPhotoBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "photo exceeds 5 MiB"})
			return
		}
		writeBadRequest(w, "cannot read photo: "+err.Error())
		return
	}

	verr := &core.ValidationError{}
	if len(photo) == 0 {
		verr.Add("photo", "is required")
	} else if !strings.HasPrefix(http.DetectContentType(photo), "image/") {
		verr.Add("photo", "must be an image")
	}
	if err := verr.OrNil(); err != nil {
		writeError(w, r, "set_photo", err)
		return
	}

	if err := s.registry.SetMemberPhoto(r.Context(), true, id, photo); err != nil {
		writeError(w, r, "set_photo", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeletePhoto(w http.ResponseWriter, r *http.Request, role core.Role) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.registry.SetMemberPhoto(r.Context(), role.CanWriteRegistry(), id, nil); err != nil {
		writeError(w, r, "delete_photo", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// rowError attributes a conversion failure to its row in a bulk edit.
func rowError(row int, memberID int64, err error) error {
	return &services.BatchError{Row: row, MemberID: memberID, Err: err}
}
