package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"budgetboard/internal/dashboard"
	applog "budgetboard/internal/log"
)

// pageData is what the index page and the dashboard partial render.
type pageData struct {
	dashboard.Snapshot
	Currency     string
	DeletePrompt string
	// Notice is shown on full page loads, which cannot carry HX-Trigger events.
	Notice string
}

func (s *Server) pageData(v *dashboard.View) pageData {
	return pageData{
		Snapshot:     v.Snapshot(),
		Currency:     s.currency,
		DeletePrompt: dashboard.DeletePrompt,
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)
	if s.templates == nil {
		logger.ErrorContext(ctx, "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	v, _ := s.sessions.View(w, r)
	var err error
	if q := r.URL.Query(); q.Has(dashboard.IDs.Period) {
		err = s.controller.SelectPeriod(ctx, v, q.Get(dashboard.IDs.Period))
	} else if !v.Snapshot().Loaded {
		err = s.controller.Refresher().Refresh(ctx, v)
	}

	data := s.pageData(v)
	if fe, ok := dashboard.AsFeedback(err); ok {
		data.Notice = fe.Message
	} else if err != nil {
		logger.WarnContext(ctx, "Initial dashboard load failed", applog.FieldError, err)
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		logger.ErrorOp(ctx, "Index template execution failed", applog.OpRender, err, "template", "index.html")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleDashboard switches the session to the selected month.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	v, _ := s.sessions.View(w, r)
	err := s.controller.SelectPeriod(r.Context(), v, r.URL.Query().Get(dashboard.IDs.Period))
	s.respond(w, r, v, err, nil)
}

func (s *Server) handleSaveIncome(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	v, _ := s.sessions.View(w, r)

	err := s.controller.SaveIncome(r.Context(), v, p.Get(dashboard.IDs.IncomeInput), p.Get(dashboard.IDs.Period))
	s.respond(w, r, v, err, func(b *HTMXResponseBuilder) {
		b.TriggerFormReset(dashboard.IDs.IncomeInput).
			TriggerSuccessNotification("Income saved")
	})
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	v, _ := s.sessions.View(w, r)

	draft := dashboard.ExpenseDraft{
		Description: p.Get(dashboard.IDs.ExpenseDescription),
		Category:    p.Get(dashboard.IDs.ExpenseCategory),
		Amount:      p.Get(dashboard.IDs.ExpenseAmount),
		Date:        p.Get(dashboard.IDs.ExpenseDate),
	}
	_, err := s.controller.AddExpense(r.Context(), v, draft)
	s.respond(w, r, v, err, func(b *HTMXResponseBuilder) {
		b.TriggerFormReset(dashboard.IDs.ExpenseDescription, dashboard.IDs.ExpenseAmount).
			TriggerSuccessNotification("Expense added")
	})
}

// handleDeleteExpense deletes only when the browser confirmed the prompt,
// which it signals with confirmed=true.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := ParsePathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	v, _ := s.sessions.View(w, r)

	confirmed := r.FormValue("confirmed") == "true"
	err = s.controller.DeleteExpense(r.Context(), v, id, dashboard.ConfirmFunc(func(context.Context, string) bool {
		return confirmed
	}))
	s.respond(w, r, v, err, nil)
}

// respond answers an htmx request after a controller call. Alerts and failed
// actions leave the page as it is; otherwise the dashboard partial is
// swapped in, with a warning when only the refresh failed.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, v *dashboard.View, err error, onSuccess func(*HTMXResponseBuilder)) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)
	b := NewHTMXResponse()

	if err != nil {
		fe, ok := dashboard.AsFeedback(err)
		switch {
		case !ok && errors.Is(err, context.Canceled):
			logger.DebugContext(ctx, "Client went away", applog.FieldError, err)
			return
		case !ok:
			logger.ErrorContext(ctx, "Unexpected dashboard error", applog.FieldError, err)
			InternalServerError("Unexpected error").TriggerErrorNotification(dashboard.MsgNetworkFailed).Write(w)
			return
		case fe.Severity == dashboard.SeverityAlert:
			b.Status(http.StatusUnprocessableEntity).TriggerFeedback(fe).Write(w)
			return
		case !fe.Stale:
			b.Status(http.StatusBadGateway).TriggerFeedback(fe).Write(w)
			return
		}
		b.TriggerFeedback(fe)
	}

	if onSuccess != nil {
		onSuccess(b)
	}

	body, err := s.renderPartial(v)
	if err != nil {
		logger.ErrorOp(ctx, "Dashboard template execution failed", applog.OpRender, err)
		InternalServerError("Failed to render dashboard").Write(w)
		return
	}
	b.TriggerDashboardRefreshed(v.Period().String()).BodyHTML(body).Write(w)
}

func (s *Server) renderPartial(v *dashboard.View) ([]byte, error) {
	if s.templates == nil {
		return nil, errors.New("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "dashboard", s.pageData(v)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
