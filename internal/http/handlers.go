package http

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"tally/internal/core"
	"tally/internal/report"
	"tally/internal/store"
	"tally/internal/view"
)

// currentSnapshot opens a throwaway subscription and takes its first
// delivery. Used by one-shot handlers that need the list state outside
// the SSE stream.
func (s *Server) currentSnapshot(r *http.Request) (store.Snapshot, error) {
	sub, err := s.store.Subscribe(r.Context())
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Close()

	select {
	case snap, ok := <-sub.Updates():
		if !ok {
			if err := sub.Err(); err != nil {
				return nil, fmt.Errorf("snapshot stream: %w", err)
			}
			return nil, errors.New("snapshot stream closed")
		}
		return snap, nil
	case <-r.Context().Done():
		return nil, r.Context().Err()
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap, err := s.currentSnapshot(r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed loading transactions", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data := struct {
		List listView
	}{List: toListView(snap, false)}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Failed rendering index", "error", err)
	}
}

// handleCreate records a new transaction from the entry form. A blank
// caption or amount is a silent no-op so mashing the button with an
// empty form never writes anything.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeFormError(w, http.StatusBadRequest, "Could not read the form.")
		return
	}

	caption := strings.TrimSpace(r.FormValue("caption"))
	rawAmount := strings.TrimSpace(r.FormValue("amount"))
	if caption == "" || rawAmount == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	amount, err := core.ParseAmount(rawAmount)
	if err != nil {
		writeFormError(w, http.StatusUnprocessableEntity, "Amount must be a positive number.")
		return
	}

	draft := core.Draft{
		Caption: caption,
		Amount:  amount,
		Type:    core.Type(r.FormValue("type")),
	}
	if err := draft.Validate(); err != nil {
		writeFormError(w, http.StatusUnprocessableEntity, validationMessage(err))
		return
	}

	id, err := s.store.Create(r.Context(), draft)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed creating transaction", "error", err)
		writeFormError(w, http.StatusInternalServerError, "Could not save the transaction: "+err.Error())
		return
	}

	slog.InfoContext(r.Context(), "Transaction created",
		"transaction_id", id,
		"type", string(draft.Type),
		"amount", draft.Amount)

	// The SSE stream refreshes the list; the form just resets.
	w.Header().Set("HX-Trigger", "transaction-created")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<p class="form-message success">Transaction recorded.</p>`)
}

// handleViewRow swaps a row back to its viewing state, used by the
// cancel button on the edit form.
func (s *Server) handleViewRow(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	tx, ok, err := s.findTransaction(r, id)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Transaction not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "row.html", toRowView(tx)); err != nil {
		slog.ErrorContext(r.Context(), "Failed rendering row", "transaction_id", id, "error", err)
	}
}

// handleEditRow swaps a row into its editing state, seeding the form
// with the row's current caption and amount.
func (s *Server) handleEditRow(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	tx, ok, err := s.findTransaction(r, id)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Transaction not found", http.StatusNotFound)
		return
	}

	data := editView{
		ID:      tx.ID,
		Caption: tx.Caption,
		Amount:  core.FormatAmount(tx.Amount),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "row_edit.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Failed rendering edit row", "transaction_id", id, "error", err)
	}
}

// handleUpdate saves an edited caption and amount. Type and creation
// time are not editable.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := r.ParseForm(); err != nil {
		writeFormError(w, http.StatusBadRequest, "Could not read the form.")
		return
	}

	caption := strings.TrimSpace(r.FormValue("caption"))
	amount, err := core.ParseAmount(strings.TrimSpace(r.FormValue("amount")))
	if err != nil {
		writeRowError(w, http.StatusUnprocessableEntity, id, "Amount must be a positive number.")
		return
	}

	patch := core.Patch{Caption: caption, Amount: amount}
	if err := patch.Validate(); err != nil {
		writeRowError(w, http.StatusUnprocessableEntity, id, validationMessage(err))
		return
	}

	if err := s.store.Update(r.Context(), id, patch); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Transaction not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "Failed updating transaction", "transaction_id", id, "error", err)
		writeRowError(w, http.StatusInternalServerError, id, "Could not save the change. Try again.")
		return
	}

	slog.InfoContext(r.Context(), "Transaction updated", "transaction_id", id)

	tx, ok, err := s.findTransaction(r, id)
	if err != nil || !ok {
		// The row was saved; the SSE refresh will reconcile the list.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("HX-Trigger", "transaction-updated")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "row.html", toRowView(tx)); err != nil {
		slog.ErrorContext(r.Context(), "Failed rendering row", "transaction_id", id, "error", err)
	}
}

// handleDelete removes a transaction. The confirm=yes parameter is the
// server-side half of the confirmation dialog: without it nothing is
// deleted.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if r.URL.Query().Get("confirm") != "yes" {
		http.Error(w, "Deletion requires confirmation", http.StatusBadRequest)
		return
	}

	if err := s.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Transaction not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "Failed deleting transaction", "transaction_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(r.Context(), "Transaction deleted", "transaction_id", id)

	// Empty body: HTMX removes the row, the SSE refresh confirms it.
	w.Header().Set("HX-Trigger", "transaction-deleted")
	w.WriteHeader(http.StatusOK)
}

// handleEvents streams the live list over server-sent events. Every
// store change pushes a fresh list fragment; a broken subscription
// pushes a sync-lost notice before the stream ends.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	v, err := view.Open(r.Context(), s.store)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed opening live view", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer v.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func() bool {
		fragment, err := s.renderList(v.Rows(), v.SyncLost())
		if err != nil {
			slog.ErrorContext(r.Context(), "Failed rendering list fragment", "error", err)
			return false
		}
		if err := writeSSE(w, "transactions", fragment); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send() {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-v.Changed():
			if !send() {
				return
			}
		case <-v.Done():
			if v.SyncLost() {
				send()
				_ = writeSSE(w, "sync-lost", []byte("live updates lost"))
				flusher.Flush()
			}
			return
		}
	}
}

// handleReport renders the current list as a PDF download.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.currentSnapshot(r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed loading transactions for report", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename+`"`)
	if err := report.Generate(w, snap, s.now()); err != nil {
		slog.ErrorContext(r.Context(), "Failed generating report", "error", err)
	}
}

func (s *Server) findTransaction(r *http.Request, id string) (core.Transaction, bool, error) {
	snap, err := s.currentSnapshot(r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed loading transactions", "error", err)
		return core.Transaction{}, false, err
	}
	for _, tx := range snap {
		if tx.ID == id {
			return tx, true, nil
		}
	}
	return core.Transaction{}, false, nil
}

// writeSSE frames a fragment as one SSE event, prefixing every line of
// the payload with "data: ".
func writeSSE(w http.ResponseWriter, event string, payload []byte) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
		return err
	}
	for _, line := range strings.Split(string(payload), "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "\n")
	return err
}

func writeFormError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<p class="form-message error">%s</p>`, template.HTMLEscapeString(msg))
}

func writeRowError(w http.ResponseWriter, status int, id, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<p class="row-message error" data-transaction-id="%s">%s</p>`,
		template.HTMLEscapeString(id), template.HTMLEscapeString(msg))
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyCaption):
		return "Description cannot be empty."
	case errors.Is(err, core.ErrCaptionTooLong):
		return "Description is too long."
	case errors.Is(err, core.ErrInvalidAmount):
		return "Amount must be a positive number."
	case errors.Is(err, core.ErrInvalidType):
		return "Type must be income or expense."
	default:
		return "Invalid input."
	}
}
