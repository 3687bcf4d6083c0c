package web

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aelexs/todo-session-client/internal/session"
)

// FlashCookie carries notices across a redirect.
const FlashCookie = "todo_flash"

type flash struct {
	Kind string `json:"kind"` // "error" or "success"
	Text string `json:"text"`
}

// exchange is the response side of one request. The session components only
// see a context; Notifier and Router find the exchange through it.
type exchange struct {
	w          http.ResponseWriter
	r          *http.Request
	pending    []flash
	redirected bool
}

type exchangeKey struct{}

func withExchange(ctx context.Context, ex *exchange) context.Context {
	return context.WithValue(ctx, exchangeKey{}, ex)
}

func exchangeFrom(ctx context.Context) *exchange {
	ex, _ := ctx.Value(exchangeKey{}).(*exchange)
	return ex
}

// Notifier queues flash messages on the current request. Outside a request
// it logs.
type Notifier struct {
	Logger *slog.Logger
}

// Error queues an error notice.
func (n Notifier) Error(ctx context.Context, message string) {
	if !queue(ctx, flash{Kind: "error", Text: message}) {
		session.LogNotifier{Logger: n.Logger}.Error(ctx, message)
	}
}

// Success queues a success notice.
func (n Notifier) Success(ctx context.Context, message string) {
	if !queue(ctx, flash{Kind: "success", Text: message}) {
		session.LogNotifier{Logger: n.Logger}.Success(ctx, message)
	}
}

func queue(ctx context.Context, f flash) bool {
	ex := exchangeFrom(ctx)
	if ex == nil {
		return false
	}
	ex.pending = append(ex.pending, f)
	return true
}

// Router answers the current request with an HTTP redirect: 303 when the
// navigation replaces history, 302 otherwise. Only the first redirect of a
// request is written.
type Router struct {
	Logger *slog.Logger
}

// Redirect writes the pending notices to the flash cookie and redirects.
func (rt Router) Redirect(ctx context.Context, path string, opts session.RedirectOptions) {
	ex := exchangeFrom(ctx)
	if ex == nil {
		session.LogRouter{Logger: rt.Logger}.Redirect(ctx, path, opts)
		return
	}
	if ex.redirected {
		return
	}
	ex.redirected = true

	if len(ex.pending) > 0 {
		setFlashes(ex.w, ex.pending)
		ex.pending = nil
	}
	status := http.StatusFound
	if opts.Replace {
		status = http.StatusSeeOther
	}
	http.Redirect(ex.w, ex.r, path, status)
}

var (
	_ session.Notifier = Notifier{}
	_ session.Router   = Router{}
)

func setFlashes(w http.ResponseWriter, fs []flash) {
	data, err := json.Marshal(fs)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlashes returns the notices left by the previous response and
// expires the cookie.
func takeFlashes(w http.ResponseWriter, r *http.Request) []flash {
	c, err := r.Cookie(FlashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: FlashCookie, Path: "/", MaxAge: -1})

	data, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var fs []flash
	if json.Unmarshal(data, &fs) != nil {
		return nil
	}
	return fs
}
