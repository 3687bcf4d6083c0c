package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/aelexs/todo-session-client/internal/authapi"
	"github.com/aelexs/todo-session-client/internal/domain"
	"github.com/aelexs/todo-session-client/internal/errmap"
	"github.com/aelexs/todo-session-client/internal/session"
)

type listView struct {
	Name  string
	Todos []domain.Todo
}

type formView struct {
	ID          string
	Title       string
	Description string
}

func (h *Handler) signInForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "signin", nil)
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := domain.SecretString(r.PostFormValue("password"))

	if err := h.accounts.SignIn(ctx, email, password); err != nil {
		h.logger.WarnContext(ctx, "sign in failed", "error", err)
		h.notifier.Error(ctx, errmap.UserMessage(err, domain.SignInFailedMessage))
		h.router.Redirect(ctx, domain.SignInPath, session.RedirectOptions{Replace: true})
		return
	}
	h.router.Redirect(ctx, domain.HomePath, session.RedirectOptions{Replace: true})
}

func (h *Handler) signUpForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "signup", nil)
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := authapi.SignUpRequest{
		FirstName: strings.TrimSpace(r.PostFormValue("firstName")),
		LastName:  strings.TrimSpace(r.PostFormValue("lastName")),
		Email:     strings.TrimSpace(r.PostFormValue("email")),
		Password:  domain.SecretString(r.PostFormValue("password")),
	}

	if err := h.accounts.SignUp(ctx, req); err != nil {
		h.logger.WarnContext(ctx, "sign up failed", "error", err)
		h.notifier.Error(ctx, errmap.UserMessage(err, domain.SignUpFailedMessage))
		h.router.Redirect(ctx, "/signup", session.RedirectOptions{Replace: true})
		return
	}
	h.notifier.Success(ctx, domain.SignUpSuccessMessage)
	h.router.Redirect(ctx, domain.SignInPath, session.RedirectOptions{Replace: true})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.accounts.Logout(ctx); err != nil {
		h.logger.ErrorContext(ctx, "logout failed", "error", err)
		h.fail(w, r, err)
		return
	}
	h.notifier.Success(ctx, domain.LoggedOutMessage)
	h.router.Redirect(ctx, domain.SignInPath, session.RedirectOptions{Replace: true})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, res session.Result) {
	ctx := r.Context()
	view := listView{Name: displayName(res), Todos: []domain.Todo{}}

	todos, err := h.todos.List(ctx, res.Claims.Subject)
	if err != nil {
		if h.apiFailed(ctx, err) {
			return
		}
		h.notifier.Error(ctx, errmap.UserMessage(err, domain.TodoLoadFailed))
	} else {
		view.Todos = todos
	}
	h.render(w, r, "list", view)
}

func (h *Handler) newForm(w http.ResponseWriter, r *http.Request, _ session.Result) {
	h.render(w, r, "form", formView{})
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request, _ session.Result) {
	ctx := r.Context()
	t, err := h.todos.Get(ctx, r.PathValue("id"))
	if err != nil {
		h.back(ctx, err, domain.TodoLoadFailed)
		return
	}
	h.render(w, r, "form", formView{ID: t.ID, Title: t.Title, Description: t.Description})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, res session.Result) {
	ctx := r.Context()
	if err := h.todos.Create(ctx, draftFromForm(r, res)); err != nil {
		if h.apiFailed(ctx, err) {
			return
		}
		h.notifier.Error(ctx, errmap.UserMessage(err, domain.TodoCreateFailed))
		h.router.Redirect(ctx, "/todo/", session.RedirectOptions{Replace: true})
		return
	}
	h.notifier.Success(ctx, domain.TodoCreatedMessage)
	h.router.Redirect(ctx, domain.HomePath, session.RedirectOptions{Replace: true})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, res session.Result) {
	ctx := r.Context()
	id := r.PathValue("id")
	if err := h.todos.Update(ctx, id, draftFromForm(r, res)); err != nil {
		if h.apiFailed(ctx, err) {
			return
		}
		h.notifier.Error(ctx, errmap.UserMessage(err, domain.TodoEditFailed))
		h.router.Redirect(ctx, "/todo/"+id, session.RedirectOptions{Replace: true})
		return
	}
	h.notifier.Success(ctx, domain.TodoUpdatedMessage)
	h.router.Redirect(ctx, domain.HomePath, session.RedirectOptions{Replace: true})
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, _ session.Result) {
	ctx := r.Context()
	t, err := h.todos.Get(ctx, r.PathValue("id"))
	if err == nil {
		err = h.todos.SetCompleted(ctx, t, !t.IsCompleted)
	}
	if err != nil {
		h.back(ctx, err, domain.TodoEditFailed)
		return
	}
	h.router.Redirect(ctx, domain.HomePath, session.RedirectOptions{Replace: true})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request, _ session.Result) {
	ctx := r.Context()
	if err := h.todos.Delete(ctx, r.PathValue("id")); err != nil {
		h.back(ctx, err, domain.TodoDeleteFailed)
		return
	}
	h.notifier.Success(ctx, domain.TodoDeletedMessage)
	h.router.Redirect(ctx, domain.HomePath, session.RedirectOptions{Replace: true})
}

// back reports a failed todo operation and returns to the list.
func (h *Handler) back(ctx context.Context, err error, fallback string) {
	if h.apiFailed(ctx, err) {
		return
	}
	h.notifier.Error(ctx, errmap.UserMessage(err, fallback))
	h.router.Redirect(ctx, domain.HomePath, session.RedirectOptions{Replace: true})
}

// apiFailed logs err and reports whether the response has already been
// written, which happens when the Authenticator ended the session.
func (h *Handler) apiFailed(ctx context.Context, err error) bool {
	h.logger.WarnContext(ctx, "todo request failed", "error", err)
	return redirected(ctx)
}

func draftFromForm(r *http.Request, res session.Result) domain.TodoDraft {
	return domain.TodoDraft{
		Title:       strings.TrimSpace(r.PostFormValue("title")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
		UserID:      res.Claims.Subject,
	}
}

func displayName(res session.Result) string {
	switch {
	case res.Claims.DisplayName != "":
		return res.Claims.DisplayName
	case res.Claims.Email != "":
		return res.Claims.Email
	default:
		return "there"
	}
}
