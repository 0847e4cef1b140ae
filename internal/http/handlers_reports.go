package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"igreja/internal/core"
	"igreja/internal/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func pathYear(r *http.Request) (int, error) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		verr := &core.ValidationError{}
		verr.Add("year", "must be a number")
		return 0, verr
	}
	return year, nil
}

func (s *Server) handleAnnualPanel(w http.ResponseWriter, r *http.Request, role core.Role) {
	year, err := pathYear(r)
	if err != nil {
		writeError(w, r, "annual_panel", err)
		return
	}
	panel, err := s.reports.AnnualPanel(r.Context(), role.CanAccessLedger(), year)
	if err != nil {
		writeError(w, r, "annual_panel", err)
		return
	}
	writeJSON(w, http.StatusOK, panel)
}

func (s *Server) handleExportPanel(w http.ResponseWriter, r *http.Request, role core.Role) {
	year, err := pathYear(r)
	if err != nil {
		writeError(w, r, "export_panel", err)
		return
	}
	panel, err := s.reports.AnnualPanel(r.Context(), role.CanAccessLedger(), year)
	if err != nil {
		writeError(w, r, "export_panel", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WritePanelXLSX(&buf, panel); err != nil {
		writeError(w, r, "export_panel", err)
		return
	}
	writeAttachment(w, fmt.Sprintf("painel-%d.xlsx", year), buf.Bytes())
}

func (s *Server) handleExportMembers(w http.ResponseWriter, r *http.Request, _ core.Role) {
	members, err := s.registry.Members(r.Context())
	if err != nil {
		writeError(w, r, "export_members", err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteMembersXLSX(&buf, members); err != nil {
		writeError(w, r, "export_members", err)
		return
	}
	writeAttachment(w, "membros.xlsx", buf.Bytes())
}

func writeAttachment(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
