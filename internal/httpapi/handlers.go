package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"stockroom/internal/domain"
	"stockroom/internal/report"
	"stockroom/internal/service"
)

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	client := clientKey(r)
	if a.logins.Blocked(client) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many failed login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	resp, err := a.auth.Login(r.Context(), req)
	if err != nil {
		a.logins.Fail(client)
		a.log.Warn().Str("username", req.Username).Str("client", client).Msg("login failed")
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	a.logins.Reset(client)
	a.log.Info().Str("username", req.Username).Str("role", resp.Role).Msg("login")

	writeJSON(w, http.StatusOK, resp)
}

// recordRoutes mounts list, create, get, update and delete for one record
// collection.
func recordRoutes[T domain.Record, PT domain.RecordPtr[T]](records *service.Records[T, PT]) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			page, err := parsePage(q.Get("page"))
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			size := parsePositiveLimit(q.Get("pageSize"), defaultPageSize, maxPageSize)

			result, err := records.List(r.Context(), q.Get("q"), page, size)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, result)
		})

		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var record T
			if err := decodeJSON(r, &record); err != nil {
				writeDecodeError(w, err)
				return
			}
			created, err := records.Create(r.Context(), record)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"record": created})
		})

		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, err := parseID(r)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			record, err := records.Get(r.Context(), id)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"record": record})
		})

		r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, err := parseID(r)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			var record T
			if err := decodeJSON(r, &record); err != nil {
				writeDecodeError(w, err)
				return
			}
			updated, err := records.Update(r.Context(), id, record)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"record": updated})
		})

		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, err := parseID(r)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			if err := records.Delete(r.Context(), id); err != nil {
				writeServiceError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

func documentRoutes(docs *service.Documents) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			page, err := parsePage(q.Get("page"))
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			size := parsePositiveLimit(q.Get("pageSize"), defaultPageSize, maxPageSize)

			result, err := docs.List(r.Context(), q.Get("q"), page, size)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, result)
		})

		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var req domain.DocumentDraftRequest
			if err := decodeJSON(r, &req); err != nil {
				writeDecodeError(w, err)
				return
			}
			doc, err := docs.Create(r.Context(), req)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"document": doc})
		})

		r.Post("/draft", func(w http.ResponseWriter, r *http.Request) {
			var req domain.DocumentDraftRequest
			if err := decodeJSON(r, &req); err != nil {
				writeDecodeError(w, err)
				return
			}
			doc, err := docs.Preview(r.Context(), req)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"document": doc})
		})

		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, err := parseID(r)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			doc, err := docs.Get(r.Context(), id)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"document": doc})
		})
	}
}

func (a *API) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := a.service.Settings(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
}

func (a *API) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req domain.Settings
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	settings, err := a.service.UpdateSettings(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
}

func (a *API) handleReport(w http.ResponseWriter, r *http.Request) {
	g, err := report.ParseGranularity(r.URL.Query().Get("granularity"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rep, err := a.service.Report(r.Context(), g)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (a *API) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	g, err := report.ParseGranularity(q.Get("granularity"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	kind := domain.DocumentKind(q.Get("kind"))
	if kind == "" {
		kind = domain.KindSale
	}
	if kind != domain.KindSale && kind != domain.KindPurchase {
		writeError(w, http.StatusBadRequest, errors.New("kind must be sale or purchase"))
		return
	}

	rows, err := a.service.Export(r.Context(), kind, g, q.Get("q"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "granularity": g, "rows": rows})
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := a.service.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (a *API) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 50, 500)
	entries, err := a.service.ListAuditLog(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (a *API) handleListStaff(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"staff": a.auth.ListStaff(r.Context())})
}

func (a *API) handleCreateStaff(w http.ResponseWriter, r *http.Request) {
	var req domain.StaffCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	staff, err := a.auth.CreateStaff(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	a.log.Info().Str("username", staff.Username).Msg("staff account created")
	writeJSON(w, http.StatusCreated, map[string]any{"staff": staff})
}
